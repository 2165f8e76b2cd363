package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-catalog-sync/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const snapshotCacheKeyPrefix = "go-catalog-sync::snapshot::v1"

// cachedSnapshot also caches absence so a cold start without a snapshot does
// not hit the database on every read.
type cachedSnapshot struct {
	Snapshot core.Snapshot
	Found    bool
}

// CachedSnapshotStore is a read-through cache in front of a SnapshotStore.
// Writes go to the base store first, then drop the cached entry.
type CachedSnapshotStore struct {
	base      core.SnapshotStore
	cache     repositorycache.CacheService
	namespace string
}

func NewCachedSnapshotStore(
	base core.SnapshotStore,
	cacheService repositorycache.CacheService,
	namespace string,
) (*CachedSnapshotStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base snapshot store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: snapshot cache service is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("sqlstore: namespace is required")
	}
	return &CachedSnapshotStore{base: base, cache: cacheService, namespace: namespace}, nil
}

// SnapshotCacheKey returns go-catalog-sync::snapshot::v1::<namespace> with
// the namespace URL-path escaped.
func SnapshotCacheKey(namespace string) string {
	return snapshotCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(namespace))
}

func (s *CachedSnapshotStore) Load(ctx context.Context) (core.Snapshot, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Snapshot{}, false, fmt.Errorf("sqlstore: cached snapshot store is not configured")
	}
	entry, err := repositorycache.GetOrFetch(ctx, s.cache, SnapshotCacheKey(s.namespace), func(ctx context.Context) (cachedSnapshot, error) {
		snapshot, found, fetchErr := s.base.Load(ctx)
		if fetchErr != nil {
			return cachedSnapshot{}, fetchErr
		}
		return cachedSnapshot{Snapshot: core.CloneSnapshot(snapshot), Found: found}, nil
	})
	if err != nil {
		return core.Snapshot{}, false, err
	}
	if !entry.Found {
		return core.Snapshot{}, false, nil
	}
	return core.CloneSnapshot(entry.Snapshot), true, nil
}

func (s *CachedSnapshotStore) Save(ctx context.Context, snapshot core.Snapshot) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached snapshot store is not configured")
	}
	if err := s.base.Save(ctx, snapshot); err != nil {
		return err
	}
	return s.cache.Delete(ctx, SnapshotCacheKey(s.namespace))
}

func (s *CachedSnapshotStore) Clear(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached snapshot store is not configured")
	}
	if err := s.base.Clear(ctx); err != nil {
		return err
	}
	return s.cache.Delete(ctx, SnapshotCacheKey(s.namespace))
}
