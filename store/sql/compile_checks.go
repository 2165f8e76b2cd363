package sqlstore

import "github.com/goliatone/go-catalog-sync/core"

var (
	_ core.CredentialStore = (*CredentialStore)(nil)
	_ core.SnapshotStore   = (*SnapshotStore)(nil)
	_ core.SnapshotStore   = (*CachedSnapshotStore)(nil)
	_ core.StoreProvider   = (*Factory)(nil)
)
