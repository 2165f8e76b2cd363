package query

import (
	"github.com/goliatone/go-catalog-sync/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[CategoriesMessage, []core.Category]  = (*CategoriesQuery)(nil)
	_ gocmd.Querier[CategoryMessage, core.Category]      = (*CategoryQuery)(nil)
	_ gocmd.Querier[ItemMessage, core.Item]              = (*ItemQuery)(nil)
	_ gocmd.Querier[CursorMessage, core.Cursor]          = (*CursorQuery)(nil)
	_ gocmd.Querier[LoadingMessage, core.CatalogLoading] = (*LoadingQuery)(nil)
	_ gocmd.Querier[SnapshotMessage, core.Snapshot]      = (*SnapshotQuery)(nil)
	_ gocmd.Querier[MutationInFlightMessage, bool]       = (*MutationInFlightQuery)(nil)
	_ gocmd.Querier[ProfileMessage, core.PartnerProfile] = (*ProfileQuery)(nil)
	_ gocmd.Querier[TokenStateMessage, core.TokenState]  = (*TokenStateQuery)(nil)
	_ gocmd.Querier[AuthenticatedMessage, bool]          = (*AuthenticatedQuery)(nil)

	_ CatalogReader = (*core.Catalog)(nil)
	_ SessionReader = (*core.Session)(nil)
)
