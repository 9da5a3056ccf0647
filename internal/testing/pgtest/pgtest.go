// Package pgtest opens a scratch Postgres schema for gateway tests. Tests are
// skipped unless CONTENTCORE_TEST_PG_DSN is set.
package pgtest

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentcore/contentcore/internal/platform/db"
)

// DSNEnv names the variable holding the test database DSN.
const DSNEnv = "CONTENTCORE_TEST_PG_DSN"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CONTENTCORE_TEST_MODE") == "" {
			_ = os.Setenv("CONTENTCORE_TEST_MODE", "1")
		}
	})
}

// Pool returns a pool on a database with the schema applied and every table
// emptied. The pool is closed when the test ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", DSNEnv)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, db.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("pgtest: connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.ApplySchema(ctx, pool); err != nil {
		t.Fatalf("pgtest: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(Tables, ", ")+" RESTART IDENTITY"); err != nil {
		t.Fatalf("pgtest: truncate: %v", err)
	}
	return pool
}

// Tables lists every table created by the schema.
var Tables = []string{
	"ibexa_content_language",
	"ibexa_content",
	"ibexa_content_tree",
	"ibexa_role",
	"ibexa_policy",
	"ibexa_policy_limitation",
	"ibexa_policy_limitation_value",
	"ibexa_user_role",
	"ibexa_object_state_group",
	"ibexa_object_state_group_language",
	"ibexa_object_state",
	"ibexa_object_state_language",
	"ibexa_object_state_link",
	"ibexa_user",
	"ibexa_user_setting",
	"ibexa_user_accountkey",
	"ibexa_dfsfile",
}

// Exec runs fixture statements, failing the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, statements ...string) {
	t.Helper()
	for _, sql := range statements {
		if _, err := pool.Exec(context.Background(), sql); err != nil {
			t.Fatalf("pgtest: %s: %v", sql, err)
		}
	}
}
