package filesystem

import (
	"context"
	"errors"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/shared"
)

// MetadataHandler derives metadata from the stored files themselves. It
// shares its filesystem with a BinarydataHandler, which owns the files, so
// deletes only check existence.
type MetadataHandler struct {
	fs       afero.Fs
	detector ioservice.MimeTypeDetector
}

var _ ioservice.MetadataHandler = (*MetadataHandler)(nil)

// NewMetadataHandler reads metadata of files below root on base.
func NewMetadataHandler(base afero.Fs, root string, detector ioservice.MimeTypeDetector) *MetadataHandler {
	if detector == nil {
		detector = ioservice.Detector{}
	}
	return &MetadataHandler{fs: Root(base, root), detector: detector}
}

func (h *MetadataHandler) Create(ctx context.Context, cs ioservice.BinaryFileCreateStruct) (ioservice.BinaryFile, error) {
	f, err := h.Load(ctx, cs.ID)
	if err != nil {
		return ioservice.BinaryFile{}, err
	}
	if cs.MimeType != "" {
		f.MimeType = cs.MimeType
	}
	return f, nil
}

func (h *MetadataHandler) Delete(ctx context.Context, spiID string) error {
	if _, err := h.fs.Stat("/" + spiID); err != nil {
		return notFound(spiID, err)
	}
	return nil
}

func (h *MetadataHandler) Load(ctx context.Context, spiID string) (ioservice.BinaryFile, error) {
	info, err := h.fs.Stat("/" + spiID)
	if err != nil {
		return ioservice.BinaryFile{}, notFound(spiID, err)
	}
	if info.IsDir() {
		return ioservice.BinaryFile{}, shared.NewNotFound("BinaryFile", spiID)
	}
	mime, err := h.GetMimeType(ctx, spiID)
	if err != nil {
		return ioservice.BinaryFile{}, err
	}
	return ioservice.BinaryFile{
		ID:       spiID,
		Size:     info.Size(),
		MTime:    info.ModTime(),
		MimeType: mime,
	}, nil
}

func (h *MetadataHandler) Exists(ctx context.Context, spiID string) (bool, error) {
	info, err := h.fs.Stat("/" + spiID)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &shared.IOError{Op: "stat", Err: err}
	}
	return !info.IsDir(), nil
}

func (h *MetadataHandler) GetMimeType(ctx context.Context, spiID string) (string, error) {
	f, err := h.fs.Open("/" + spiID)
	if err != nil {
		return "", notFound(spiID, err)
	}
	defer f.Close()
	mime, err := h.detector.FromReader(f)
	if err != nil {
		return "", &shared.IOError{Op: "detect mime type", Err: err}
	}
	return mime, nil
}

// DeleteDirectory is a no-op; the binary data handler removes the files.
func (h *MetadataHandler) DeleteDirectory(ctx context.Context, spiPath string) error {
	return nil
}
