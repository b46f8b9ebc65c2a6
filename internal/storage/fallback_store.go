package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/2beens/workouttracker/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// KeyPendingSync holds, in the local store, the keys whose last write never reached remote.
const KeyPendingSync = "pending_sync"

// FallbackStore writes through to the remote store and mirrors every write into the local one.
// Reads prefer remote and fall back to local when remote fails or does not have the key.
// A failed remote write does not fail the call as long as the local write succeeds: the key is
// marked pending, served from local until it is pushed to remote again (last write wins).
type FallbackStore struct {
	remote         Store
	local          Store
	metricsManager *metrics.Manager

	// guards the pending keys document
	mutex sync.Mutex
}

func NewFallbackStore(remote, local Store, metricsManager *metrics.Manager) *FallbackStore {
	return &FallbackStore{
		remote:         remote,
		local:          local,
		metricsManager: metricsManager,
	}
}

func (s *FallbackStore) Get(ctx context.Context, key string) (string, error) {
	pending, err := s.isPending(ctx, key)
	if err != nil {
		log.Errorf("pending sync lookup [%s]: %s", key, err)
	}
	if pending || err != nil {
		if err := s.push(ctx, key); err != nil {
			log.Warnf("remote store resync [%s]: %s", key, err)
		}
		return s.local.Get(ctx, key)
	}

	value, err := s.remote.Get(ctx, key)
	if err == nil {
		return value, nil
	}

	if !errors.Is(err, ErrNotFound) {
		log.Warnf("remote store get [%s]: %s, falling back to local", key, err)
		s.metricsManager.CounterStoreFallbacks.WithLabelValues("get").Inc()
	}

	return s.local.Get(ctx, key)
}

func (s *FallbackStore) Set(ctx context.Context, key, value string) error {
	remoteErr := s.remote.Set(ctx, key, value)
	if remoteErr != nil {
		log.Errorf("remote store set [%s]: %s", key, remoteErr)
		s.metricsManager.CounterStoreFallbacks.WithLabelValues("set").Inc()
	}

	if err := s.local.Set(ctx, key, value); err != nil {
		return multierr.Append(remoteErr, err)
	}

	return s.markPending(ctx, key, remoteErr != nil)
}

func (s *FallbackStore) Delete(ctx context.Context, key string) error {
	remoteErr := s.remote.Delete(ctx, key)
	if remoteErr != nil {
		log.Errorf("remote store delete [%s]: %s", key, remoteErr)
		s.metricsManager.CounterStoreFallbacks.WithLabelValues("delete").Inc()
	}

	if err := s.local.Delete(ctx, key); err != nil {
		return multierr.Append(remoteErr, err)
	}

	return s.markPending(ctx, key, remoteErr != nil)
}

// Sync pushes every pending key from local to remote.
func (s *FallbackStore) Sync(ctx context.Context) error {
	s.mutex.Lock()
	keys, err := s.pendingKeys(ctx)
	s.mutex.Unlock()
	if err != nil {
		return err
	}

	var syncErr error
	for key := range keys {
		if err := s.push(ctx, key); err != nil {
			syncErr = multierr.Append(syncErr, fmt.Errorf("sync [%s]: %w", key, err))
		}
	}
	if len(keys) > 0 && syncErr == nil {
		log.Infof("remote store synced %d pending keys", len(keys))
	}

	return syncErr
}

// Pending returns the sorted keys still waiting for a remote write.
func (s *FallbackStore) Pending(ctx context.Context) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys, err := s.pendingKeys(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(keys))
	for key := range keys {
		pending = append(pending, key)
	}
	sort.Strings(pending)
	return pending, nil
}

// push writes the local state of key to remote, a missing local key is deleted remotely.
func (s *FallbackStore) push(ctx context.Context, key string) error {
	value, err := s.local.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		err = s.remote.Delete(ctx, key)
	case err != nil:
		return err
	default:
		err = s.remote.Set(ctx, key, value)
	}
	if err != nil {
		return err
	}

	return s.markPending(ctx, key, false)
}

func (s *FallbackStore) isPending(ctx context.Context, key string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys, err := s.pendingKeys(ctx)
	if err != nil {
		return false, err
	}
	return keys[key], nil
}

func (s *FallbackStore) markPending(ctx context.Context, key string, pending bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys, err := s.pendingKeys(ctx)
	if err != nil {
		return err
	}
	if keys[key] == pending {
		return nil
	}

	if pending {
		keys[key] = true
	} else {
		delete(keys, key)
	}

	if len(keys) == 0 {
		return s.local.Delete(ctx, KeyPendingSync)
	}

	list := make([]string, 0, len(keys))
	for k := range keys {
		list = append(list, k)
	}
	sort.Strings(list)

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal pending keys: %w", err)
	}
	return s.local.Set(ctx, KeyPendingSync, string(data))
}

func (s *FallbackStore) pendingKeys(ctx context.Context) (map[string]bool, error) {
	keys := map[string]bool{}

	data, err := s.local.Get(ctx, KeyPendingSync)
	if errors.Is(err, ErrNotFound) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending keys: %w", err)
	}

	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal pending keys: %w", err)
	}
	for _, k := range list {
		keys[k] = true
	}
	return keys, nil
}
