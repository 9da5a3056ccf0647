// Package dfs keeps binary file metadata in the ibexa_dfsfile table shared by
// clustered installations.
package dfs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/platform/db"
	"github.com/contentcore/contentcore/internal/shared"
)

// Scopes recorded for files below the known prefixes.
const (
	ScopeImage   = "image"
	ScopeBinary  = "binaryfile"
	ScopeUnknown = "UNKNOWN_SCOPE"
)

// MetadataHandler reads and writes ibexa_dfsfile rows. Rows are addressed by
// the md5 of the storage id.
type MetadataHandler struct {
	q   db.Querier
	now func() time.Time
}

var _ ioservice.MetadataHandler = (*MetadataHandler)(nil)

// NewMetadataHandler returns a handler over q.
func NewMetadataHandler(q db.Querier) *MetadataHandler {
	return &MetadataHandler{q: q, now: time.Now}
}

// Scope derives the dfs scope from the first path segment of a storage id.
func Scope(spiID string) string {
	first, _, _ := strings.Cut(strings.TrimLeft(spiID, "/"), "/")
	switch first {
	case "images", "images-versioned":
		return ScopeImage
	case "original":
		return ScopeBinary
	default:
		return ScopeUnknown
	}
}

func (h *MetadataHandler) Create(ctx context.Context, cs ioservice.BinaryFileCreateStruct) (ioservice.BinaryFile, error) {
	mtime := cs.MTime
	if mtime.IsZero() {
		mtime = h.now()
	}
	_, err := h.q.Exec(ctx, `
		INSERT INTO ibexa_dfsfile (name, name_trunk, name_hash, datatype, scope, size, mtime, expired)
		VALUES ($1, $1, md5($1), $2, $3, $4, $5, false)
		ON CONFLICT (name_hash) DO UPDATE
		SET datatype = EXCLUDED.datatype, scope = EXCLUDED.scope, size = EXCLUDED.size,
		    mtime = EXCLUDED.mtime, expired = false`,
		cs.ID, cs.MimeType, Scope(cs.ID), cs.Size, mtime.Unix())
	if err != nil {
		return ioservice.BinaryFile{}, &shared.DatabaseError{Op: "dfs.Create", Err: err}
	}
	return ioservice.BinaryFile{
		ID:       cs.ID,
		Size:     cs.Size,
		MTime:    time.Unix(mtime.Unix(), 0),
		MimeType: cs.MimeType,
	}, nil
}

func (h *MetadataHandler) Delete(ctx context.Context, spiID string) error {
	tag, err := h.q.Exec(ctx, `DELETE FROM ibexa_dfsfile WHERE name_hash = md5($1)`, spiID)
	if err != nil {
		return &shared.DatabaseError{Op: "dfs.Delete", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFound("BinaryFile", spiID)
	}
	return nil
}

func (h *MetadataHandler) Load(ctx context.Context, spiID string) (ioservice.BinaryFile, error) {
	var (
		f     ioservice.BinaryFile
		mtime int64
	)
	err := h.q.QueryRow(ctx, `
		SELECT name, size, mtime, datatype FROM ibexa_dfsfile
		WHERE name_hash = md5($1) AND NOT expired`, spiID).Scan(&f.ID, &f.Size, &mtime, &f.MimeType)
	if errors.Is(err, pgx.ErrNoRows) {
		return ioservice.BinaryFile{}, shared.NewNotFound("BinaryFile", spiID)
	}
	if err != nil {
		return ioservice.BinaryFile{}, &shared.DatabaseError{Op: "dfs.Load", Err: err}
	}
	f.MTime = time.Unix(mtime, 0)
	return f, nil
}

func (h *MetadataHandler) Exists(ctx context.Context, spiID string) (bool, error) {
	var exists bool
	err := h.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM ibexa_dfsfile WHERE name_hash = md5($1) AND NOT expired)`, spiID).Scan(&exists)
	if err != nil {
		return false, &shared.DatabaseError{Op: "dfs.Exists", Err: err}
	}
	return exists, nil
}

func (h *MetadataHandler) GetMimeType(ctx context.Context, spiID string) (string, error) {
	var mime string
	err := h.q.QueryRow(ctx, `SELECT datatype FROM ibexa_dfsfile WHERE name_hash = md5($1)`, spiID).Scan(&mime)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.NewNotFound("BinaryFile", spiID)
	}
	if err != nil {
		return "", &shared.DatabaseError{Op: "dfs.GetMimeType", Err: err}
	}
	return mime, nil
}

func (h *MetadataHandler) DeleteDirectory(ctx context.Context, spiPath string) error {
	_, err := h.q.Exec(ctx, `DELETE FROM ibexa_dfsfile WHERE name LIKE $1 ESCAPE '\'`, likePrefix(spiPath))
	if err != nil {
		return &shared.DatabaseError{Op: "dfs.DeleteDirectory", Err: err}
	}
	return nil
}

func likePrefix(dir string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.Trim(dir, "/")) + "/%"
}
