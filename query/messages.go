package query

import (
	"strings"

	"github.com/goliatone/go-catalog-sync/core"
)

const (
	TypeCategories       = "catalogsync.query.catalog.categories"
	TypeCategory         = "catalogsync.query.catalog.category"
	TypeItem             = "catalogsync.query.catalog.item"
	TypeCursor           = "catalogsync.query.catalog.cursor"
	TypeLoading          = "catalogsync.query.catalog.loading"
	TypeSnapshot         = "catalogsync.query.catalog.snapshot"
	TypeMutationInFlight = "catalogsync.query.catalog.mutation_in_flight"
	TypeProfile          = "catalogsync.query.session.profile"
	TypeTokenState       = "catalogsync.query.session.token_state"
	TypeAuthenticated    = "catalogsync.query.session.authenticated"
)

// CategoriesMessage reads the cached categories. EnsureLoaded fetches the
// first page when nothing is cached yet.
type CategoriesMessage struct {
	EnsureLoaded bool
}

func (CategoriesMessage) Type() string { return TypeCategories }

func (CategoriesMessage) Validate() error { return nil }

type CategoryMessage struct {
	CategoryID core.EntityID
}

func (CategoryMessage) Type() string { return TypeCategory }

func (m CategoryMessage) Validate() error {
	return requireID("category_id", m.CategoryID)
}

type ItemMessage struct {
	CategoryID core.EntityID
	ItemID     core.EntityID
}

func (ItemMessage) Type() string { return TypeItem }

func (m ItemMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	return requireID("item_id", m.ItemID)
}

type CursorMessage struct{}

func (CursorMessage) Type() string { return TypeCursor }

func (CursorMessage) Validate() error { return nil }

type LoadingMessage struct{}

func (LoadingMessage) Type() string { return TypeLoading }

func (LoadingMessage) Validate() error { return nil }

type SnapshotMessage struct{}

func (SnapshotMessage) Type() string { return TypeSnapshot }

func (SnapshotMessage) Validate() error { return nil }

// MutationInFlightMessage takes a key built by core.ItemMutationKey and its
// siblings.
type MutationInFlightMessage struct {
	Key string
}

func (MutationInFlightMessage) Type() string { return TypeMutationInFlight }

func (m MutationInFlightMessage) Validate() error {
	if strings.TrimSpace(m.Key) == "" {
		return queryValidationError("key", "mutation key is required")
	}
	return nil
}

type ProfileMessage struct{}

func (ProfileMessage) Type() string { return TypeProfile }

func (ProfileMessage) Validate() error { return nil }

type TokenStateMessage struct{}

func (TokenStateMessage) Type() string { return TypeTokenState }

func (TokenStateMessage) Validate() error { return nil }

type AuthenticatedMessage struct{}

func (AuthenticatedMessage) Type() string { return TypeAuthenticated }

func (AuthenticatedMessage) Validate() error { return nil }

func requireID(field string, id core.EntityID) error {
	if strings.TrimSpace(string(id)) == "" {
		return queryValidationError(field, field+" is required")
	}
	return nil
}
