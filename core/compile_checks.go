package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ CredentialStore = (*MemoryCredentialStore)(nil)
	_ SnapshotStore   = (*MemorySnapshotStore)(nil)
	_ Signer          = BearerTokenSigner{}
	_ Refresher       = (*RefreshCoordinator)(nil)
	_ Executor        = (*RequestProtocol)(nil)
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ ErrorMapper     = MapError

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
