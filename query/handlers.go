package query

import (
	"context"

	"github.com/goliatone/go-catalog-sync/core"
)

type CatalogReader interface {
	EnsureLoaded(ctx context.Context) ([]core.Category, error)
	Categories() []core.Category
	Category(id core.EntityID) (core.Category, bool)
	Item(categoryID core.EntityID, itemID core.EntityID) (core.Item, bool)
	Cursor() core.Cursor
	Loading() core.CatalogLoading
	Snapshot() core.Snapshot
	MutationInFlight(key string) bool
}

type SessionReader interface {
	Profile(ctx context.Context) (core.PartnerProfile, error)
	TokenState(ctx context.Context) (core.TokenState, error)
	Authenticated(ctx context.Context) (bool, error)
}

type CategoriesQuery struct {
	reader CatalogReader
}

func NewCategoriesQuery(reader CatalogReader) *CategoriesQuery {
	return &CategoriesQuery{reader: reader}
}

func (q *CategoriesQuery) Query(ctx context.Context, msg CategoriesMessage) ([]core.Category, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: catalog reader is required")
	}
	if msg.EnsureLoaded {
		return q.reader.EnsureLoaded(ctx)
	}
	return q.reader.Categories(), nil
}

type CategoryQuery struct {
	reader CatalogReader
}

func NewCategoryQuery(reader CatalogReader) *CategoryQuery {
	return &CategoryQuery{reader: reader}
}

func (q *CategoryQuery) Query(_ context.Context, msg CategoryMessage) (core.Category, error) {
	if q == nil || q.reader == nil {
		return core.Category{}, queryDependencyError("query: catalog reader is required")
	}
	category, ok := q.reader.Category(msg.CategoryID)
	if !ok {
		return core.Category{}, core.NotFoundError("query: category " + msg.CategoryID.String() + " not found")
	}
	return category, nil
}

type ItemQuery struct {
	reader CatalogReader
}

func NewItemQuery(reader CatalogReader) *ItemQuery {
	return &ItemQuery{reader: reader}
}

func (q *ItemQuery) Query(_ context.Context, msg ItemMessage) (core.Item, error) {
	if q == nil || q.reader == nil {
		return core.Item{}, queryDependencyError("query: catalog reader is required")
	}
	item, ok := q.reader.Item(msg.CategoryID, msg.ItemID)
	if !ok {
		return core.Item{}, core.NotFoundError("query: item " + msg.ItemID.String() + " not found")
	}
	return item, nil
}

type CursorQuery struct {
	reader CatalogReader
}

func NewCursorQuery(reader CatalogReader) *CursorQuery {
	return &CursorQuery{reader: reader}
}

func (q *CursorQuery) Query(_ context.Context, _ CursorMessage) (core.Cursor, error) {
	if q == nil || q.reader == nil {
		return core.Cursor{}, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.Cursor(), nil
}

type LoadingQuery struct {
	reader CatalogReader
}

func NewLoadingQuery(reader CatalogReader) *LoadingQuery {
	return &LoadingQuery{reader: reader}
}

func (q *LoadingQuery) Query(_ context.Context, _ LoadingMessage) (core.CatalogLoading, error) {
	if q == nil || q.reader == nil {
		return core.CatalogLoading{}, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.Loading(), nil
}

type SnapshotQuery struct {
	reader CatalogReader
}

func NewSnapshotQuery(reader CatalogReader) *SnapshotQuery {
	return &SnapshotQuery{reader: reader}
}

func (q *SnapshotQuery) Query(_ context.Context, _ SnapshotMessage) (core.Snapshot, error) {
	if q == nil || q.reader == nil {
		return core.Snapshot{}, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.Snapshot(), nil
}

type MutationInFlightQuery struct {
	reader CatalogReader
}

func NewMutationInFlightQuery(reader CatalogReader) *MutationInFlightQuery {
	return &MutationInFlightQuery{reader: reader}
}

func (q *MutationInFlightQuery) Query(_ context.Context, msg MutationInFlightMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.MutationInFlight(msg.Key), nil
}

type ProfileQuery struct {
	reader SessionReader
}

func NewProfileQuery(reader SessionReader) *ProfileQuery {
	return &ProfileQuery{reader: reader}
}

func (q *ProfileQuery) Query(ctx context.Context, _ ProfileMessage) (core.PartnerProfile, error) {
	if q == nil || q.reader == nil {
		return core.PartnerProfile{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.Profile(ctx)
}

type TokenStateQuery struct {
	reader SessionReader
}

func NewTokenStateQuery(reader SessionReader) *TokenStateQuery {
	return &TokenStateQuery{reader: reader}
}

func (q *TokenStateQuery) Query(ctx context.Context, _ TokenStateMessage) (core.TokenState, error) {
	if q == nil || q.reader == nil {
		return core.TokenState{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.TokenState(ctx)
}

type AuthenticatedQuery struct {
	reader SessionReader
}

func NewAuthenticatedQuery(reader SessionReader) *AuthenticatedQuery {
	return &AuthenticatedQuery{reader: reader}
}

func (q *AuthenticatedQuery) Query(ctx context.Context, _ AuthenticatedMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: session reader is required")
	}
	return q.reader.Authenticated(ctx)
}
