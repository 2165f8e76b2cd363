package security

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goliatone/go-catalog-sync/core"
)

// KeyRing encrypts with the primary key and decrypts with whichever key sealed
// the value, so stored credentials survive an application key rotation.
type KeyRing struct {
	primary *AppKeySecretProvider
	keys    map[string]*AppKeySecretProvider
}

func NewKeyRing(primary *AppKeySecretProvider, previous ...*AppKeySecretProvider) (*KeyRing, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret provider is required")
	}
	ring := &KeyRing{primary: primary, keys: map[string]*AppKeySecretProvider{}}
	for _, provider := range append([]*AppKeySecretProvider{primary}, previous...) {
		if provider == nil {
			continue
		}
		ref := keyRef(provider.KeyID(), provider.Version())
		if _, exists := ring.keys[ref]; exists {
			return nil, fmt.Errorf("security: duplicate key %s", ref)
		}
		ring.keys[ref] = provider
	}
	return ring, nil
}

func (r *KeyRing) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("security: key ring is nil")
	}
	return r.primary.Encrypt(ctx, plaintext)
}

func (r *KeyRing) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("security: key ring is nil")
	}
	metadata, err := ParseEnvelopeMetadata(ciphertext)
	if err != nil {
		return nil, err
	}
	provider, ok := r.keys[keyRef(metadata.KeyID, metadata.Version)]
	if !ok {
		return nil, fmt.Errorf("security: no key for %s", keyRef(metadata.KeyID, metadata.Version))
	}
	return provider.Decrypt(ctx, ciphertext)
}

// NeedsRotation reports whether a sealed value was written by a non-primary
// key.
func (r *KeyRing) NeedsRotation(ciphertext []byte) bool {
	if r == nil {
		return false
	}
	metadata, err := ParseEnvelopeMetadata(ciphertext)
	if err != nil {
		return false
	}
	return metadata.KeyID != r.primary.KeyID() || metadata.Version != r.primary.Version()
}

func keyRef(keyID string, version int) string {
	return keyID + "@v" + strconv.Itoa(version)
}

var _ core.SecretProvider = (*KeyRing)(nil)
