package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-catalog-sync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	KeyCatalogCategories      = "catalog.categories"
	KeyCatalogLastFetchedPage = "catalog.last_fetched_page"
)

// SnapshotStore keeps the catalog snapshot as two kv entries written in
// one transaction. A snapshot is only reported when both entries exist and
// parse; anything else reads as absent.
type SnapshotStore struct {
	db        *bun.DB
	repo      repository.Repository[*kvRecord]
	namespace string
}

func NewSnapshotStore(db *bun.DB, namespace string) (*SnapshotStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("sqlstore: namespace is required")
	}
	repo := repository.NewRepository[*kvRecord](db, kvHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid kv repository wiring: %w", err)
		}
	}
	return &SnapshotStore{db: db, repo: repo, namespace: namespace}, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot core.Snapshot) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	categories := snapshot.Categories
	if categories == nil {
		categories = []core.Category{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("sqlstore: encode catalog categories: %w", err)
	}
	if snapshot.LastFetchedPage < 0 {
		return core.BadInputError("sqlstore: last fetched page must not be negative")
	}
	entries := map[string]string{
		KeyCatalogCategories:      string(encoded),
		KeyCatalogLastFetchedPage: strconv.Itoa(snapshot.LastFetchedPage),
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, key := range []string{KeyCatalogCategories, KeyCatalogLastFetchedPage} {
			if err := s.upsertTx(ctx, tx, key, entries[key], now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SnapshotStore) Load(ctx context.Context) (core.Snapshot, bool, error) {
	if s == nil || s.repo == nil {
		return core.Snapshot{}, false, fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.SelectBy("namespace", "=", s.namespace))
	if err != nil {
		return core.Snapshot{}, false, err
	}
	values := map[string]string{}
	for _, record := range records {
		values[record.Key] = record.Value
	}
	rawCategories, hasCategories := values[KeyCatalogCategories]
	rawPage, hasPage := values[KeyCatalogLastFetchedPage]
	if !hasCategories || !hasPage {
		return core.Snapshot{}, false, nil
	}
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < 0 {
		return core.Snapshot{}, false, nil
	}
	var categories []core.Category
	if err := json.Unmarshal([]byte(rawCategories), &categories); err != nil {
		return core.Snapshot{}, false, nil
	}
	if categories == nil {
		categories = []core.Category{}
	}
	return core.Snapshot{Categories: categories, LastFetchedPage: page}, true, nil
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: snapshot store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*kvRecord)(nil)).
		Where("namespace = ?", s.namespace).
		Where("entry_key IN (?)", bun.In([]string{KeyCatalogCategories, KeyCatalogLastFetchedPage})).
		Exec(ctx)
	return err
}

func (s *SnapshotStore) upsertTx(ctx context.Context, tx bun.Tx, key string, value string, now time.Time) error {
	record := &kvRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.namespace = ?", s.namespace).
		Where("?TableAlias.entry_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return err
	}
	if isNoRows(err) {
		_, createErr := s.repo.CreateTx(ctx, tx, &kvRecord{
			ID:        uuid.NewString(),
			Namespace: s.namespace,
			Key:       key,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return createErr
	}
	record.Value = value
	record.UpdatedAt = now
	_, err = tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
	return err
}
