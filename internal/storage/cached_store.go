package storage

import (
	"context"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// CachedStore is a read-through cache in front of another store.
type CachedStore struct {
	inner  Store
	cache  *freecache.Cache
	ttlSec int
}

// NewCachedStore creates a cache of sizeBytes. Entries larger than sizeBytes/1024 are never cached.
func NewCachedStore(inner Store, sizeBytes, ttlSec int) *CachedStore {
	return &CachedStore{
		inner:  inner,
		cache:  freecache.NewCache(sizeBytes),
		ttlSec: ttlSec,
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) (string, error) {
	if cached, err := s.cache.Get([]byte(key)); err == nil {
		return string(cached), nil
	}

	value, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	s.put(key, value)
	return value, nil
}

func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		s.cache.Del([]byte(key))
		return err
	}
	s.put(key, value)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.cache.Del([]byte(key))
	return s.inner.Delete(ctx, key)
}

func (s *CachedStore) put(key, value string) {
	if err := s.cache.Set([]byte(key), []byte(value), s.ttlSec); err != nil {
		// too large for the cache, drop any stale copy
		s.cache.Del([]byte(key))
		log.Tracef("store cache skip [%s]: %s", key, err)
	}
}
