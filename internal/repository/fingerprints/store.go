// Package fingerprints persists content fingerprints in a key-value cache so
// repeated evaluations of the same content skip feature extraction.
package fingerprints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/cache"
	"github.com/copyshield/copyshield/internal/domain"
)

const keyPrefix = "copyshield:fp:"

// DefaultTTL keeps cached fingerprints for a week. Content bytes are
// immutable per content ID, so the TTL only bounds cache growth.
const DefaultTTL = 7 * 24 * time.Hour

// kv is the consumer interface for the fingerprint cache (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store is a cache-backed fingerprint repository.
type Store struct {
	kv         kv
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a fingerprint store. cacheTotal is a counter vec with label
// "result" ("hit"/"miss"), passed explicitly; pass nil to disable counting.
func New(kv kv, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached fingerprint for a content ID. The second return
// value reports whether the cache held one; cache errors are logged and
// treated as misses so extraction can proceed.
func (s *Store) Get(ctx context.Context, contentID string) (*domain.ContentFingerprint, bool) {
	data, err := s.kv.Get(ctx, s.key(contentID))
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			s.logger.Warn("Failed to read cached fingerprint",
				zap.String("content_id", contentID), zap.Error(err))
		}
		s.inc("miss")
		return nil, false
	}

	var fp domain.ContentFingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		s.logger.Warn("Failed to parse cached fingerprint",
			zap.String("content_id", contentID), zap.Error(err))
		s.inc("miss")
		return nil, false
	}

	s.inc("hit")
	return &fp, true
}

// Put stores a fingerprint under its content ID.
func (s *Store) Put(ctx context.Context, fp *domain.ContentFingerprint) error {
	if fp == nil || fp.ContentID == "" {
		return fmt.Errorf("fingerprint must carry a content ID")
	}
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("marshal fingerprint %s: %w", fp.ContentID, err)
	}
	if err := s.kv.SetWithTTL(ctx, s.key(fp.ContentID), data, s.ttl); err != nil {
		return fmt.Errorf("cache fingerprint %s: %w", fp.ContentID, err)
	}
	return nil
}

// Invalidate drops the cached fingerprint for a content ID.
func (s *Store) Invalidate(ctx context.Context, contentID string) error {
	if err := s.kv.Del(ctx, s.key(contentID)); err != nil {
		return fmt.Errorf("invalidate fingerprint %s: %w", contentID, err)
	}
	return nil
}

func (s *Store) key(contentID string) string {
	return keyPrefix + contentID
}

func (s *Store) inc(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}
