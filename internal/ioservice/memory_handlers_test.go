package ioservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/contentcore/contentcore/internal/shared"
)

type memoryBinary struct {
	files     map[string][]byte
	failOn    string
	deleteErr error
}

func newMemoryBinary() *memoryBinary {
	return &memoryBinary{files: map[string][]byte{}}
}

func (b *memoryBinary) Create(ctx context.Context, cs BinaryFileCreateStruct) error {
	if b.failOn == "create" {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(cs.InputStream)
	if err != nil {
		return err
	}
	b.files[cs.ID] = data
	return nil
}

func (b *memoryBinary) Delete(ctx context.Context, spiID string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.files[spiID]; !ok {
		return shared.NewNotFound("BinaryFile", spiID)
	}
	delete(b.files, spiID)
	return nil
}

func (b *memoryBinary) GetContents(ctx context.Context, spiID string) ([]byte, error) {
	data, ok := b.files[spiID]
	if !ok {
		return nil, shared.NewNotFound("BinaryFile", spiID)
	}
	return data, nil
}

func (b *memoryBinary) GetResource(ctx context.Context, spiID string) (io.ReadCloser, error) {
	data, err := b.GetContents(ctx, spiID)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBinary) GetURI(spiID string) string { return "/var/storage/" + spiID }

func (b *memoryBinary) GetIDFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "/var/storage/") {
		return "", shared.NewInvalidArgument("uri", "'%s' is outside the storage", uri)
	}
	return strings.TrimPrefix(uri, "/var/storage/"), nil
}

func (b *memoryBinary) DeleteDirectory(ctx context.Context, spiPath string) error {
	for id := range b.files {
		if strings.HasPrefix(id, spiPath+"/") {
			delete(b.files, id)
		}
	}
	return nil
}

type memoryMetadata struct {
	files  map[string]BinaryFile
	failOn string
}

func newMemoryMetadata() *memoryMetadata {
	return &memoryMetadata{files: map[string]BinaryFile{}}
}

func (m *memoryMetadata) Create(ctx context.Context, cs BinaryFileCreateStruct) (BinaryFile, error) {
	if m.failOn == "create" {
		return BinaryFile{}, &shared.DatabaseError{Op: "metadata.create", Err: errors.New("connection reset")}
	}
	f := BinaryFile{ID: cs.ID, Size: cs.Size, MTime: cs.MTime, MimeType: cs.MimeType}
	if f.MTime.IsZero() {
		f.MTime = time.Unix(1700000000, 0)
	}
	m.files[cs.ID] = f
	return f, nil
}

func (m *memoryMetadata) Delete(ctx context.Context, spiID string) error {
	if _, ok := m.files[spiID]; !ok {
		return shared.NewNotFound("BinaryFile", spiID)
	}
	delete(m.files, spiID)
	return nil
}

func (m *memoryMetadata) Load(ctx context.Context, spiID string) (BinaryFile, error) {
	f, ok := m.files[spiID]
	if !ok {
		return BinaryFile{}, shared.NewNotFound("BinaryFile", spiID)
	}
	return f, nil
}

func (m *memoryMetadata) Exists(ctx context.Context, spiID string) (bool, error) {
	_, ok := m.files[spiID]
	return ok, nil
}

func (m *memoryMetadata) GetMimeType(ctx context.Context, spiID string) (string, error) {
	f, err := m.Load(ctx, spiID)
	if err != nil {
		return "", err
	}
	if f.MimeType == "" {
		return "application/octet-stream", nil
	}
	return f.MimeType, nil
}

func (m *memoryMetadata) DeleteDirectory(ctx context.Context, spiPath string) error {
	for id := range m.files {
		if strings.HasPrefix(id, spiPath+"/") {
			delete(m.files, id)
		}
	}
	return nil
}

type recordingOrphans struct {
	ids []string
}

func (r *recordingOrphans) ReportOrphan(ctx context.Context, spiID string, cause error) error {
	r.ids = append(r.ids, spiID)
	return nil
}

type recordingObserver struct {
	ops     []string
	missing []string
}

func (o *recordingObserver) ObserveIOOperation(op, outcome string) {
	o.ops = append(o.ops, op+":"+outcome)
}

func (o *recordingObserver) ObserveMissingFile(op string) {
	o.missing = append(o.missing, op)
}
