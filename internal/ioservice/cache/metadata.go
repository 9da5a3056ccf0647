// Package cache decorates a metadata handler with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/contentcore/contentcore/internal/ioservice"
	"github.com/contentcore/contentcore/internal/shared"
)

const keyPrefix = "io:metadata:"

// MetadataHandler caches Load results of an inner handler in Redis. Writes go
// to the inner handler first and then drop the cached entries.
type MetadataHandler struct {
	inner  ioservice.MetadataHandler
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

var _ ioservice.MetadataHandler = (*MetadataHandler)(nil)

// NewMetadataHandler wraps inner. logger may be nil.
func NewMetadataHandler(inner ioservice.MetadataHandler, client *redis.Client, ttl time.Duration, logger *slog.Logger) *MetadataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataHandler{inner: inner, client: client, ttl: ttl, logger: logger}
}

type entry struct {
	ID       string `json:"id"`
	Size     int64  `json:"size"`
	MTime    int64  `json:"mtime"`
	MimeType string `json:"mimeType"`
}

func key(spiID string) string {
	return keyPrefix + strings.TrimLeft(spiID, "/")
}

func (h *MetadataHandler) Load(ctx context.Context, spiID string) (ioservice.BinaryFile, error) {
	k := key(spiID)
	payload, err := h.client.Get(ctx, k).Bytes()
	if err == nil {
		var e entry
		if err := json.Unmarshal(payload, &e); err == nil {
			return ioservice.BinaryFile{ID: e.ID, Size: e.Size, MTime: time.Unix(e.MTime, 0), MimeType: e.MimeType}, nil
		}
		h.logger.Warn("drop corrupt metadata cache entry", slog.String("key", k))
	} else if !errors.Is(err, redis.Nil) {
		h.logger.Warn("metadata cache unavailable", slog.String("key", k), slog.Any("error", err))
	}

	v, err, _ := h.group.Do(k, func() (any, error) {
		f, err := h.inner.Load(ctx, spiID)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(entry{ID: f.ID, Size: f.Size, MTime: f.MTime.Unix(), MimeType: f.MimeType})
		if err != nil {
			return nil, err
		}
		if err := h.client.Set(ctx, k, raw, h.ttl).Err(); err != nil {
			h.logger.Warn("store metadata cache entry", slog.String("key", k), slog.Any("error", err))
		}
		return f, nil
	})
	if err != nil {
		return ioservice.BinaryFile{}, err
	}
	return v.(ioservice.BinaryFile), nil
}

func (h *MetadataHandler) Exists(ctx context.Context, spiID string) (bool, error) {
	_, err := h.Load(ctx, spiID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (h *MetadataHandler) GetMimeType(ctx context.Context, spiID string) (string, error) {
	f, err := h.Load(ctx, spiID)
	if err != nil {
		return "", err
	}
	if f.MimeType != "" {
		return f.MimeType, nil
	}
	return h.inner.GetMimeType(ctx, spiID)
}

func (h *MetadataHandler) Create(ctx context.Context, cs ioservice.BinaryFileCreateStruct) (ioservice.BinaryFile, error) {
	f, err := h.inner.Create(ctx, cs)
	if err != nil {
		return ioservice.BinaryFile{}, err
	}
	h.invalidate(ctx, key(cs.ID))
	return f, nil
}

func (h *MetadataHandler) Delete(ctx context.Context, spiID string) error {
	err := h.inner.Delete(ctx, spiID)
	h.invalidate(ctx, key(spiID))
	return err
}

func (h *MetadataHandler) DeleteDirectory(ctx context.Context, spiPath string) error {
	if err := h.inner.DeleteDirectory(ctx, spiPath); err != nil {
		return err
	}
	pattern := key(strings.Trim(spiPath, "/")) + "/*"
	iter := h.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		h.logger.Warn("scan metadata cache", slog.String("pattern", pattern), slog.Any("error", err))
		return nil
	}
	h.invalidate(ctx, keys...)
	return nil
}

func (h *MetadataHandler) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := h.client.Del(ctx, keys...).Err(); err != nil {
		h.logger.Warn("invalidate metadata cache", slog.Any("keys", keys), slog.Any("error", err))
	}
}
