// Package ioservice stores binary files addressed by a logical id, keeping
// their bytes and their metadata in separate handlers.
package ioservice

import (
	"context"
	"io"
	"mime/multipart"
	"time"
)

// BinaryFile describes a stored file. Missing marks a placeholder returned by
// the tolerant service for files whose metadata is gone.
type BinaryFile struct {
	ID       string
	Size     int64
	MTime    time.Time
	URI      string
	MimeType string
	Missing  bool
}

// MissingBinaryFile returns the placeholder for an unknown file.
func MissingBinaryFile(id, uri string) BinaryFile {
	return BinaryFile{ID: id, URI: uri, Missing: true}
}

// BinaryFileCreateStruct carries a new file. InputStream is consumed by
// CreateBinaryFile.
type BinaryFileCreateStruct struct {
	ID          string
	Size        int64
	MimeType    string
	MTime       time.Time
	InputStream io.Reader
}

// MetadataHandler stores file metadata under storage ids, which already carry
// the service prefix.
type MetadataHandler interface {
	Create(ctx context.Context, cs BinaryFileCreateStruct) (BinaryFile, error)
	Delete(ctx context.Context, spiID string) error
	Load(ctx context.Context, spiID string) (BinaryFile, error)
	Exists(ctx context.Context, spiID string) (bool, error)
	GetMimeType(ctx context.Context, spiID string) (string, error)
	DeleteDirectory(ctx context.Context, spiPath string) error
}

// BinarydataHandler stores file bytes under storage ids.
type BinarydataHandler interface {
	Create(ctx context.Context, cs BinaryFileCreateStruct) error
	Delete(ctx context.Context, spiID string) error
	GetContents(ctx context.Context, spiID string) ([]byte, error)
	GetResource(ctx context.Context, spiID string) (io.ReadCloser, error)
	GetURI(spiID string) string
	GetIDFromURI(uri string) (string, error)
	DeleteDirectory(ctx context.Context, spiPath string) error
}

// OrphanReporter is told about stored bytes whose metadata could not be
// written and which could not be removed either.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, spiID string, cause error) error
}

// Observer receives operation outcomes.
type Observer interface {
	ObserveIOOperation(op, outcome string)
	ObserveMissingFile(op string)
}

// IOService is the file API shared by Service and its decorators.
type IOService interface {
	SetPrefix(prefix string)
	Prefix() string
	NewBinaryCreateStructFromLocalFile(ctx context.Context, path string) (BinaryFileCreateStruct, error)
	NewBinaryCreateStructFromUploadedFile(ctx context.Context, upload *multipart.FileHeader) (BinaryFileCreateStruct, error)
	Exists(ctx context.Context, binaryFileID string) (bool, error)
	LoadBinaryFile(ctx context.Context, binaryFileID string) (BinaryFile, error)
	LoadBinaryFileByURI(ctx context.Context, uri string) (BinaryFile, error)
	GetFileContents(ctx context.Context, file BinaryFile) ([]byte, error)
	GetFileInputStream(ctx context.Context, file BinaryFile) (io.ReadCloser, error)
	CreateBinaryFile(ctx context.Context, cs BinaryFileCreateStruct) (BinaryFile, error)
	GetURI(binaryFileID string) string
	GetMimeType(ctx context.Context, binaryFileID string) (string, error)
	GetInternalPath(binaryFileID string) string
	GetExternalPath(internalID string) (string, error)
	DeleteBinaryFile(ctx context.Context, file BinaryFile) error
	DeleteDirectory(ctx context.Context, path string) error
}
