package sqlstore

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-catalog-sync/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

const defaultNamespace = "catalogsync"

// Factory builds the durable stores for one namespace and hands them to a
// core client through core.WithStoreProvider.
type Factory struct {
	db *bun.DB

	credentialStore *CredentialStore
	snapshotStore   core.SnapshotStore
}

type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	namespace     string
	snapshotCache repositorycache.CacheService
}

// WithNamespace scopes stored rows, usually to Config.ClientName.
func WithNamespace(namespace string) FactoryOption {
	return func(o *factoryOptions) {
		if trimmed := strings.TrimSpace(namespace); trimmed != "" {
			o.namespace = trimmed
		}
	}
}

// WithSnapshotCache puts a read-through cache in front of snapshot reads.
func WithSnapshotCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(o *factoryOptions) {
		o.snapshotCache = cacheService
	}
}

func NewFactoryFromPersistence(client *persistence.Client, secrets core.SecretProvider, opts ...FactoryOption) (*Factory, error) {
	return NewFactory(client, secrets, opts...)
}

func NewFactory(persistenceClient any, secrets core.SecretProvider, opts ...FactoryOption) (*Factory, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	options := factoryOptions{namespace: defaultNamespace}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	credentialStore, err := NewCredentialStore(db, secrets, options.namespace)
	if err != nil {
		return nil, err
	}
	baseSnapshots, err := NewSnapshotStore(db, options.namespace)
	if err != nil {
		return nil, err
	}
	var snapshotStore core.SnapshotStore = baseSnapshots
	if options.snapshotCache != nil {
		cached, cacheErr := NewCachedSnapshotStore(baseSnapshots, options.snapshotCache, options.namespace)
		if cacheErr != nil {
			return nil, cacheErr
		}
		snapshotStore = cached
	}
	return &Factory{db: db, credentialStore: credentialStore, snapshotStore: snapshotStore}, nil
}

// NewSnapshotCacheService builds an in-process cache with the configured TTL.
func NewSnapshotCacheService(cfg core.Config) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if cfg.SnapshotCacheTTL > 0 {
		config.TTL = cfg.SnapshotCacheTTL
	}
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: new snapshot cache service: %w", err)
	}
	return service, nil
}

func (f *Factory) CredentialStore() core.CredentialStore {
	if f == nil || f.credentialStore == nil {
		return nil
	}
	return f.credentialStore
}

func (f *Factory) SnapshotStore() core.SnapshotStore {
	if f == nil {
		return nil
	}
	return f.snapshotStore
}

func (f *Factory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
