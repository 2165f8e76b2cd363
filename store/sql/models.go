package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

// credentialRecord holds one sealed credential pair per namespace.
type credentialRecord struct {
	bun.BaseModel `bun:"table:catalog_sync_credentials,alias:csc"`

	ID                string    `bun:"id,pk"`
	Namespace         string    `bun:"namespace,notnull"`
	EncryptedPayload  []byte    `bun:"encrypted_payload,notnull"`
	EncryptionKeyID   string    `bun:"encryption_key_id,notnull"`
	EncryptionVersion int       `bun:"encryption_version,notnull"`
	HasRefreshToken   bool      `bun:"has_refresh_token,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// kvRecord is a namespaced string value. The catalog snapshot is stored as
// two entries so either half can be inspected on its own.
type kvRecord struct {
	bun.BaseModel `bun:"table:catalog_sync_kv,alias:csk"`

	ID        string    `bun:"id,pk"`
	Namespace string    `bun:"namespace,notnull"`
	Key       string    `bun:"entry_key,notnull"`
	Value     string    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
