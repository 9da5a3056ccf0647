package ioservice

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/contentcore/contentcore/internal/shared"
)

var _ IOService = (*Service)(nil)

// Service implements IOService over a metadata and a binary data handler.
type Service struct {
	metadata MetadataHandler
	binary   BinarydataHandler
	detector MimeTypeDetector
	localFs  afero.Fs
	orphans  OrphanReporter
	observer Observer
	logger   *slog.Logger

	mu     sync.RWMutex
	prefix string
}

// Option configures a Service.
type Option func(*Service)

// WithPrefix sets the initial storage prefix.
func WithPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = strings.Trim(prefix, "/") }
}

// WithDetector replaces the mime type detector.
func WithDetector(d MimeTypeDetector) Option {
	return func(s *Service) { s.detector = d }
}

// WithLocalFs sets the filesystem local files are read from.
func WithLocalFs(fs afero.Fs) Option {
	return func(s *Service) { s.localFs = fs }
}

// WithOrphanReporter sets where unremovable orphaned bytes are reported.
func WithOrphanReporter(r OrphanReporter) Option {
	return func(s *Service) { s.orphans = r }
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds a Service.
func NewService(metadata MetadataHandler, binary BinarydataHandler, opts ...Option) *Service {
	s := &Service{
		metadata: metadata,
		binary:   binary,
		detector: Detector{},
		localFs:  afero.NewOsFs(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPrefix changes the storage prefix prepended to every id.
func (s *Service) SetPrefix(prefix string) {
	s.mu.Lock()
	s.prefix = strings.Trim(prefix, "/")
	s.mu.Unlock()
}

// Prefix returns the storage prefix.
func (s *Service) Prefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefix
}

func (s *Service) observe(op string, err error) {
	if s.observer == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, shared.ErrInvalidArgument):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	s.observer.ObserveIOOperation(op, outcome)
}

// NewBinaryCreateStructFromLocalFile opens a regular local file for creation.
// The caller sets the id.
func (s *Service) NewBinaryCreateStructFromLocalFile(ctx context.Context, localFile string) (BinaryFileCreateStruct, error) {
	info, err := s.localFs.Stat(localFile)
	if err != nil || !info.Mode().IsRegular() {
		return BinaryFileCreateStruct{}, shared.NewInvalidArgument("localFile", "'%s' is not a readable regular file", localFile)
	}
	f, err := s.localFs.Open(localFile)
	if err != nil {
		return BinaryFileCreateStruct{}, shared.NewInvalidArgument("localFile", "'%s' cannot be opened: %v", localFile, err)
	}
	mimeType, err := s.detectSeekable(f)
	if err != nil {
		f.Close()
		return BinaryFileCreateStruct{}, &shared.IOError{Op: "detect mime type", Err: err}
	}
	return BinaryFileCreateStruct{
		Size:        info.Size(),
		MimeType:    mimeType,
		MTime:       info.ModTime(),
		InputStream: f,
	}, nil
}

// NewBinaryCreateStructFromUploadedFile opens an uploaded multipart file.
func (s *Service) NewBinaryCreateStructFromUploadedFile(ctx context.Context, upload *multipart.FileHeader) (BinaryFileCreateStruct, error) {
	if upload == nil || upload.Size <= 0 {
		return BinaryFileCreateStruct{}, shared.NewInvalidArgument("uploadedFile", "is not an uploaded file")
	}
	f, err := upload.Open()
	if err != nil {
		return BinaryFileCreateStruct{}, shared.NewInvalidArgument("uploadedFile", "cannot be opened: %v", err)
	}
	mimeType, err := s.detectSeekable(f)
	if err != nil {
		f.Close()
		return BinaryFileCreateStruct{}, &shared.IOError{Op: "detect mime type", Err: err}
	}
	return BinaryFileCreateStruct{
		ID:          upload.Filename,
		Size:        upload.Size,
		MimeType:    mimeType,
		InputStream: f,
	}, nil
}

func (s *Service) detectSeekable(r io.ReadSeeker) (string, error) {
	mimeType, err := s.detector.FromReader(io.LimitReader(r, SniffLen))
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimeType, nil
}

// Exists reports whether metadata exists for the file.
func (s *Service) Exists(ctx context.Context, binaryFileID string) (bool, error) {
	if err := checkBinaryFileID(binaryFileID); err != nil {
		return false, err
	}
	return s.metadata.Exists(ctx, s.GetInternalPath(binaryFileID))
}

// LoadBinaryFile loads a file by its id.
func (s *Service) LoadBinaryFile(ctx context.Context, binaryFileID string) (BinaryFile, error) {
	f, err := s.loadBinaryFile(ctx, binaryFileID)
	s.observe("load", err)
	return f, err
}

func (s *Service) loadBinaryFile(ctx context.Context, binaryFileID string) (BinaryFile, error) {
	if err := checkBinaryFileID(binaryFileID); err != nil {
		return BinaryFile{}, err
	}
	if path.IsAbs(binaryFileID) {
		return BinaryFile{}, shared.NewInvalidArgument("binaryFileId", "'%s' is an absolute path", binaryFileID)
	}
	spiID := s.GetInternalPath(binaryFileID)
	spi, err := s.metadata.Load(ctx, spiID)
	if err != nil {
		return BinaryFile{}, err
	}
	if spi.MimeType == "" {
		if spi.MimeType, err = s.metadata.GetMimeType(ctx, spiID); err != nil {
			return BinaryFile{}, err
		}
	}
	return s.domainFile(spi)
}

// LoadBinaryFileByURI loads a file from its public URI.
func (s *Service) LoadBinaryFileByURI(ctx context.Context, uri string) (BinaryFile, error) {
	f, err := s.loadBinaryFileByURI(ctx, uri)
	s.observe("load_by_uri", err)
	return f, err
}

func (s *Service) loadBinaryFileByURI(ctx context.Context, uri string) (BinaryFile, error) {
	spiID, err := s.binary.GetIDFromURI(uri)
	if err != nil {
		return BinaryFile{}, err
	}
	id, err := s.GetExternalPath(spiID)
	if err != nil {
		return BinaryFile{}, err
	}
	return s.loadBinaryFile(ctx, id)
}

// GetFileContents reads the whole file.
func (s *Service) GetFileContents(ctx context.Context, file BinaryFile) ([]byte, error) {
	if err := checkBinaryFileID(file.ID); err != nil {
		return nil, err
	}
	return s.binary.GetContents(ctx, s.GetInternalPath(file.ID))
}

// GetFileInputStream opens the file for reading. The caller closes it.
func (s *Service) GetFileInputStream(ctx context.Context, file BinaryFile) (io.ReadCloser, error) {
	if err := checkBinaryFileID(file.ID); err != nil {
		return nil, err
	}
	return s.binary.GetResource(ctx, s.GetInternalPath(file.ID))
}

// CreateBinaryFile stores the bytes, then the metadata. When the metadata
// cannot be stored the bytes are removed again; bytes that cannot be removed
// are handed to the orphan reporter.
func (s *Service) CreateBinaryFile(ctx context.Context, cs BinaryFileCreateStruct) (BinaryFile, error) {
	f, err := s.createBinaryFile(ctx, cs)
	s.observe("create", err)
	return f, err
}

func (s *Service) createBinaryFile(ctx context.Context, cs BinaryFileCreateStruct) (BinaryFile, error) {
	if cs.ID == "" {
		return BinaryFile{}, shared.NewInvalidArgument("binaryCreateStruct.id", "must be a non-empty string")
	}
	if cs.Size <= 0 {
		return BinaryFile{}, shared.NewInvalidArgument("binaryCreateStruct.size", "must be a positive integer, got %d", cs.Size)
	}
	if cs.InputStream == nil {
		return BinaryFile{}, shared.NewInvalidArgument("binaryCreateStruct.inputStream", "must be a readable stream")
	}
	if cs.MimeType == "" {
		var err error
		if cs.InputStream, cs.MimeType, err = s.sniff(cs.InputStream, cs.Size); err != nil {
			return BinaryFile{}, &shared.IOError{Op: "detect mime type", Err: err}
		}
	}

	spiCS := cs
	spiCS.ID = s.GetInternalPath(cs.ID)
	if err := s.binary.Create(ctx, spiCS); err != nil {
		return BinaryFile{}, &shared.IOError{Op: "store binary data", Err: err}
	}
	spi, err := s.metadata.Create(ctx, spiCS)
	if err != nil {
		s.compensateCreate(ctx, spiCS.ID, err)
		return BinaryFile{}, err
	}
	return s.domainFile(spi)
}

// sniff detects the mime type of the first size bytes and returns a reader
// still positioned at the start of the stream.
func (s *Service) sniff(r io.Reader, size int64) (io.Reader, string, error) {
	n := min(size, SniffLen)
	if rs, ok := r.(io.ReadSeeker); ok {
		buf := make([]byte, n)
		read, err := io.ReadFull(rs, buf)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, "", err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, "", err
		}
		return rs, s.detector.FromBuffer(buf[:read]), nil
	}
	br := bufio.NewReaderSize(r, int(n))
	head, err := br.Peek(int(n))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", err
	}
	return br, s.detector.FromBuffer(bytes.Clone(head)), nil
}

func (s *Service) compensateCreate(ctx context.Context, spiID string, cause error) {
	delErr := s.binary.Delete(ctx, spiID)
	if delErr == nil {
		s.logger.Warn("removed binary data after metadata failure",
			slog.String("spi_id", spiID), slog.Any("error", cause))
		return
	}
	s.logger.Error("orphaned binary data",
		slog.String("spi_id", spiID), slog.Any("error", cause), slog.Any("delete_error", delErr))
	if s.orphans == nil {
		return
	}
	if err := s.orphans.ReportOrphan(ctx, spiID, cause); err != nil {
		s.logger.Error("report orphaned binary data", slog.String("spi_id", spiID), slog.Any("error", err))
	}
}

// GetURI returns the public URI of a file.
func (s *Service) GetURI(binaryFileID string) string {
	return s.binary.GetURI(s.GetInternalPath(binaryFileID))
}

// GetMimeType returns the stored mime type of a file.
func (s *Service) GetMimeType(ctx context.Context, binaryFileID string) (string, error) {
	if err := checkBinaryFileID(binaryFileID); err != nil {
		return "", err
	}
	return s.metadata.GetMimeType(ctx, s.GetInternalPath(binaryFileID))
}

// GetInternalPath prepends the prefix to an id.
func (s *Service) GetInternalPath(binaryFileID string) string {
	prefix := s.Prefix()
	if prefix == "" {
		return binaryFileID
	}
	return prefix + "/" + binaryFileID
}

// GetExternalPath strips the prefix from a storage id.
func (s *Service) GetExternalPath(internalID string) (string, error) {
	prefix := s.Prefix()
	if prefix == "" {
		return internalID, nil
	}
	if !strings.HasPrefix(internalID, prefix+"/") {
		return "", shared.NewInvalidArgument("binaryFileId", "'%s' does not start with prefix '%s'", internalID, prefix)
	}
	return strings.TrimPrefix(internalID, prefix+"/"), nil
}

// DeleteBinaryFile deletes the metadata, then the bytes. Bytes are deleted
// even when the metadata is already gone, and the not-found is returned.
func (s *Service) DeleteBinaryFile(ctx context.Context, file BinaryFile) error {
	err := s.deleteBinaryFile(ctx, file)
	s.observe("delete", err)
	return err
}

func (s *Service) deleteBinaryFile(ctx context.Context, file BinaryFile) error {
	if err := checkBinaryFileID(file.ID); err != nil {
		return err
	}
	spiID := s.GetInternalPath(file.ID)
	if err := s.metadata.Delete(ctx, spiID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if delErr := s.binary.Delete(ctx, spiID); delErr != nil && !errors.Is(delErr, shared.ErrNotFound) {
				return fmt.Errorf("delete binary data of %s: %w", spiID, delErr)
			}
		}
		return err
	}
	return s.binary.Delete(ctx, spiID)
}

// DeleteDirectory removes every file below path.
func (s *Service) DeleteDirectory(ctx context.Context, dir string) error {
	spiPath := s.GetInternalPath(strings.Trim(dir, "/"))
	if err := s.metadata.DeleteDirectory(ctx, spiPath); err != nil {
		return err
	}
	return s.binary.DeleteDirectory(ctx, spiPath)
}

func (s *Service) domainFile(spi BinaryFile) (BinaryFile, error) {
	id, err := s.GetExternalPath(spi.ID)
	if err != nil {
		return BinaryFile{}, err
	}
	return BinaryFile{
		ID:       id,
		Size:     spi.Size,
		MTime:    spi.MTime,
		URI:      s.binary.GetURI(spi.ID),
		MimeType: spi.MimeType,
	}, nil
}

func checkBinaryFileID(id string) error {
	if id == "" {
		return shared.NewInvalidArgument("binaryFileId", "must be a non-empty string")
	}
	return nil
}
