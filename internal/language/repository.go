package language

import (
	"context"

	"github.com/contentcore/contentcore/internal/platform/db"
)

// Repository reads the language table.
type Repository struct {
	q db.Querier
}

// NewRepository constructs a repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// LoadAll returns every configured language ordered by id.
func (r *Repository) LoadAll(ctx context.Context) ([]Language, error) {
	rows, err := r.q.Query(ctx, `SELECT id, locale, name, disabled FROM ibexa_content_language ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var languages []Language
	for rows.Next() {
		var l Language
		var disabled int
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &disabled); err != nil {
			return nil, err
		}
		l.Disabled = disabled != 0
		languages = append(languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return languages, nil
}
