// Package filesystem keeps binary files on a local or in-memory filesystem.
package filesystem

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/shared"
)

// BinarydataHandler stores bytes below a root directory and serves them under
// a URL prefix.
type BinarydataHandler struct {
	fs        afero.Fs
	urlPrefix string
}

var _ ioservice.BinarydataHandler = (*BinarydataHandler)(nil)

// NewBinarydataHandler stores files below root on base.
func NewBinarydataHandler(base afero.Fs, root, urlPrefix string) *BinarydataHandler {
	return &BinarydataHandler{
		fs:        Root(base, root),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Root confines base to the root directory.
func Root(base afero.Fs, root string) afero.Fs {
	if root == "" || root == "/" {
		return base
	}
	return afero.NewBasePathFs(base, root)
}

func notFound(spiID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return shared.NewNotFound("BinaryFile", spiID)
	}
	return &shared.IOError{Op: "filesystem", Err: err}
}

func (h *BinarydataHandler) Create(ctx context.Context, cs ioservice.BinaryFileCreateStruct) error {
	if err := h.fs.MkdirAll(path.Dir("/"+cs.ID), 0o755); err != nil {
		return err
	}
	f, err := h.fs.Create("/" + cs.ID)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, cs.InputStream); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !cs.MTime.IsZero() {
		return h.fs.Chtimes("/"+cs.ID, cs.MTime, cs.MTime)
	}
	return nil
}

func (h *BinarydataHandler) Delete(ctx context.Context, spiID string) error {
	if err := h.fs.Remove("/" + spiID); err != nil {
		return notFound(spiID, err)
	}
	return nil
}

func (h *BinarydataHandler) GetContents(ctx context.Context, spiID string) ([]byte, error) {
	data, err := afero.ReadFile(h.fs, "/"+spiID)
	if err != nil {
		return nil, notFound(spiID, err)
	}
	return data, nil
}

func (h *BinarydataHandler) GetResource(ctx context.Context, spiID string) (io.ReadCloser, error) {
	f, err := h.fs.Open("/" + spiID)
	if err != nil {
		return nil, notFound(spiID, err)
	}
	return f, nil
}

func (h *BinarydataHandler) GetURI(spiID string) string {
	return h.urlPrefix + "/" + spiID
}

func (h *BinarydataHandler) GetIDFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, h.urlPrefix+"/") {
		return "", shared.NewInvalidArgument("uri", "'%s' is not below '%s'", uri, h.urlPrefix)
	}
	return strings.TrimPrefix(uri, h.urlPrefix+"/"), nil
}

func (h *BinarydataHandler) DeleteDirectory(ctx context.Context, spiPath string) error {
	if err := h.fs.RemoveAll("/" + strings.Trim(spiPath, "/")); err != nil {
		return &shared.IOError{Op: "delete directory", Err: err}
	}
	return nil
}
