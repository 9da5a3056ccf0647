package ioservice

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/contentcore/contentcore/internal/shared"
)

var _ IOService = (*TolerantService)(nil)

// TolerantService is a Service for repositories whose files and metadata have
// drifted apart. Loading a file without metadata yields a MissingBinaryFile
// and deleting one is a no-op, both logged as warnings. Invalid arguments
// still fail.
type TolerantService struct {
	*Service
}

// NewTolerantService wraps s.
func NewTolerantService(s *Service) *TolerantService {
	return &TolerantService{Service: s}
}

func (t *TolerantService) missing(op, binaryFileID string, err error) BinaryFile {
	t.logger.Warn("binary file not found",
		slog.String("op", op), slog.String("binary_file_id", binaryFileID), slog.Any("error", err))
	if t.observer != nil {
		t.observer.ObserveMissingFile(op)
	}
	return MissingBinaryFile(binaryFileID, t.GetURI(binaryFileID))
}

// LoadBinaryFile loads a file, returning a MissingBinaryFile when its
// metadata is not found.
func (t *TolerantService) LoadBinaryFile(ctx context.Context, binaryFileID string) (BinaryFile, error) {
	if err := checkBinaryFileID(binaryFileID); err != nil {
		return BinaryFile{}, err
	}
	if path.IsAbs(binaryFileID) {
		return BinaryFile{}, shared.NewInvalidArgument("binaryFileId", "'%s' is an absolute path", binaryFileID)
	}
	f, err := t.Service.LoadBinaryFile(ctx, binaryFileID)
	if errors.Is(err, shared.ErrNotFound) {
		return t.missing("load", binaryFileID, err), nil
	}
	return f, err
}

// LoadBinaryFileByURI loads a file by URI, returning a MissingBinaryFile when
// its metadata is not found.
func (t *TolerantService) LoadBinaryFileByURI(ctx context.Context, uri string) (BinaryFile, error) {
	spiID, err := t.binary.GetIDFromURI(uri)
	if err != nil {
		return BinaryFile{}, err
	}
	id, err := t.GetExternalPath(spiID)
	if err != nil {
		return BinaryFile{}, err
	}
	f, err := t.Service.LoadBinaryFile(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		missing := t.missing("load_by_uri", id, err)
		missing.URI = uri
		return missing, nil
	}
	return f, err
}

// DeleteBinaryFile deletes metadata and bytes, ignoring either being absent.
func (t *TolerantService) DeleteBinaryFile(ctx context.Context, file BinaryFile) error {
	if err := checkBinaryFileID(file.ID); err != nil {
		return err
	}
	spiID := t.GetInternalPath(file.ID)
	if err := t.metadata.Delete(ctx, spiID); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		t.missing("delete_metadata", file.ID, err)
	}
	if err := t.binary.Delete(ctx, spiID); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		t.missing("delete_binarydata", file.ID, err)
	}
	return nil
}
