package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Client wires the sync components around one credential store and one
// transport.
type Client struct {
	config         Config
	logger         Logger
	loggerProvider LoggerProvider
	errorMapper    ErrorMapper
	transport      TransportAdapter
	credentials    CredentialStore
	snapshots      SnapshotStore
	guard          *MutationGuard
	refresher      *RefreshCoordinator
	protocol       *RequestProtocol
	catalog        *Catalog
	session        *Session
}

type ClientDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	ErrorMapper     ErrorMapper
	Transport       TransportAdapter
	CredentialStore CredentialStore
	SnapshotStore   SnapshotStore
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("catalogsync", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("catalogsync"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.signer == nil {
		builder.signer = BearerTokenSigner{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.transport == nil {
		return nil, mapBuildError(builder.errorMapper, BadInputError("core: transport adapter is required"))
	}
	if builder.storeProvider != nil {
		if builder.credentialStore == nil {
			builder.credentialStore = builder.storeProvider.CredentialStore()
		}
		if builder.snapshotStore == nil {
			builder.snapshotStore = builder.storeProvider.SnapshotStore()
		}
	}
	if builder.credentialStore == nil {
		builder.credentialStore = NewMemoryCredentialStore()
	}
	if builder.snapshotStore == nil {
		builder.snapshotStore = NewMemorySnapshotStore()
	}

	refresher, err := NewRefreshCoordinator(builder.credentialStore, builder.transport, finalConfig, logger)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	protocol, err := NewRequestProtocol(
		builder.transport,
		builder.credentialStore,
		refresher,
		builder.signer,
		finalConfig.RequestTimeout,
		logger,
	)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	guard := NewMutationGuard()
	catalog, err := NewCatalog(protocol, builder.snapshotStore, guard, finalConfig, logger)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	session, err := NewSession(protocol, builder.credentialStore, catalog, finalConfig, logger)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Client{
		config:         finalConfig,
		logger:         logger,
		loggerProvider: provider,
		errorMapper:    builder.errorMapper,
		transport:      builder.transport,
		credentials:    builder.credentialStore,
		snapshots:      builder.snapshotStore,
		guard:          guard,
		refresher:      refresher,
		protocol:       protocol,
		catalog:        catalog,
		session:        session,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// Start restores the persisted catalog so reads have data before the first
// fetch completes.
func (c *Client) Start(ctx context.Context) error {
	if c == nil {
		return BadInputError("core: client is nil")
	}
	startedAt := time.Now()
	restored, err := c.catalog.Restore(ctx)
	if err != nil {
		newObserver(c.logger).observeOperation(ctx, startedAt, "client.start", err, nil)
		return mapBuildError(c.errorMapper, err)
	}
	newObserver(c.logger).observeOperation(ctx, startedAt, "client.start", nil, map[string]any{"restored": restored})
	return nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Dependencies() ClientDependencies {
	if c == nil {
		return ClientDependencies{}
	}
	return ClientDependencies{
		Logger:          c.logger,
		LoggerProvider:  c.loggerProvider,
		ErrorMapper:     c.errorMapper,
		Transport:       c.transport,
		CredentialStore: c.credentials,
		SnapshotStore:   c.snapshots,
	}
}

func (c *Client) Refresher() *RefreshCoordinator { return c.refresher }

func (c *Client) Protocol() *RequestProtocol { return c.protocol }

func (c *Client) Catalog() *Catalog { return c.catalog }

func (c *Client) Session() *Session { return c.session }

func (c *Client) Guard() *MutationGuard { return c.guard }
