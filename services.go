package catalogsync

import (
	"github.com/goliatone/go-catalog-sync/core"
	"github.com/goliatone/go-catalog-sync/transport"
)

type Config = core.Config

type Option = core.Option

type Client = core.Client

type ClientDependencies = core.ClientDependencies
type CredentialStore = core.CredentialStore
type SnapshotStore = core.SnapshotStore
type StoreProvider = core.StoreProvider
type TransportAdapter = core.TransportAdapter
type Signer = core.Signer

type CredentialPair = core.CredentialPair
type LoginRequest = core.LoginRequest
type CategoryInput = core.CategoryInput
type ItemInput = core.ItemInput
type ImageFile = core.ImageFile

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithTransport       = core.WithTransport
	WithSigner          = core.WithSigner
	WithStoreProvider   = core.WithStoreProvider
	WithCredentialStore = core.WithCredentialStore
	WithSnapshotStore   = core.WithSnapshotStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New builds a client over the REST transport unless an option supplies
// another adapter.
func New(cfg Config, opts ...Option) (*Client, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, WithTransport(transport.NewRESTAdapterFromConfig(nil, cfg)))
	all = append(all, opts...)
	return core.NewClient(cfg, all...)
}
