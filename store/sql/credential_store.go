package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-catalog-sync/core"
	"github.com/goliatone/go-catalog-sync/security"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CredentialStore persists the credential pair sealed by a SecretProvider.
// Plaintext tokens never reach the database.
type CredentialStore struct {
	db        *bun.DB
	repo      repository.Repository[*credentialRecord]
	secrets   core.SecretProvider
	namespace string
}

func NewCredentialStore(db *bun.DB, secrets core.SecretProvider, namespace string) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("sqlstore: secret provider is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("sqlstore: namespace is required")
	}
	repo := repository.NewRepository[*credentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo, secrets: secrets, namespace: namespace}, nil
}

func (s *CredentialStore) Put(ctx context.Context, pair core.CredentialPair) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	pair.AccessToken = strings.TrimSpace(pair.AccessToken)
	pair.RefreshToken = strings.TrimSpace(pair.RefreshToken)
	if err := pair.Validate(); err != nil {
		return core.BadInputError(err.Error())
	}
	plaintext, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("sqlstore: encode credential pair: %w", err)
	}
	sealed, err := s.secrets.Encrypt(ctx, plaintext)
	if err != nil {
		return core.InternalError(err, "sqlstore: seal credential pair")
	}
	keyID, version := "", 0
	if metadata, metaErr := security.ParseEnvelopeMetadata(sealed); metaErr == nil {
		keyID, version = metadata.KeyID, metadata.Version
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.findTx(ctx, tx)
		if err != nil {
			return err
		}
		if record == nil {
			_, createErr := s.repo.CreateTx(ctx, tx, &credentialRecord{
				ID:                uuid.NewString(),
				Namespace:         s.namespace,
				EncryptedPayload:  sealed,
				EncryptionKeyID:   keyID,
				EncryptionVersion: version,
				HasRefreshToken:   pair.CanRefresh(),
				CreatedAt:         now,
				UpdatedAt:         now,
			})
			return createErr
		}
		record.EncryptedPayload = sealed
		record.EncryptionKeyID = keyID
		record.EncryptionVersion = version
		record.HasRefreshToken = pair.CanRefresh()
		record.UpdatedAt = now
		_, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
		return updateErr
	})
}

func (s *CredentialStore) Get(ctx context.Context) (core.CredentialPair, bool, error) {
	if s == nil || s.db == nil {
		return core.CredentialPair{}, false, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.findTx(ctx, s.db)
	if err != nil {
		return core.CredentialPair{}, false, err
	}
	if record == nil {
		return core.CredentialPair{}, false, nil
	}
	plaintext, err := s.secrets.Decrypt(ctx, record.EncryptedPayload)
	if err != nil {
		return core.CredentialPair{}, false, core.InternalError(err, "sqlstore: open credential pair")
	}
	var pair core.CredentialPair
	if err := json.Unmarshal(plaintext, &pair); err != nil {
		return core.CredentialPair{}, false, core.InternalError(err, "sqlstore: decode credential pair")
	}
	if err := pair.Validate(); err != nil {
		return core.CredentialPair{}, false, core.InternalError(err, "sqlstore: stored credential pair is invalid")
	}
	return pair, true, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("namespace = ?", s.namespace).
		Exec(ctx)
	return err
}

func (s *CredentialStore) findTx(ctx context.Context, db bun.IDB) (*credentialRecord, error) {
	record := &credentialRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.namespace = ?", s.namespace).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
