package command

import (
	"github.com/goliatone/go-catalog-sync/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[LoginMessage]                   = (*LoginCommand)(nil)
	_ gocmd.Commander[LogoutMessage]                  = (*LogoutCommand)(nil)
	_ gocmd.Commander[RefreshMessage]                 = (*RefreshCommand)(nil)
	_ gocmd.Commander[LoadFirstPageMessage]           = (*LoadFirstPageCommand)(nil)
	_ gocmd.Commander[LoadNextPageMessage]            = (*LoadNextPageCommand)(nil)
	_ gocmd.Commander[ResetCatalogMessage]            = (*ResetCatalogCommand)(nil)
	_ gocmd.Commander[ClearCatalogMessage]            = (*ClearCatalogCommand)(nil)
	_ gocmd.Commander[ToggleItemActiveMessage]        = (*ToggleItemActiveCommand)(nil)
	_ gocmd.Commander[ToggleCategoryActiveMessage]    = (*ToggleCategoryActiveCommand)(nil)
	_ gocmd.Commander[ToggleSubCategoryActiveMessage] = (*ToggleSubCategoryActiveCommand)(nil)
	_ gocmd.Commander[UpdateItemMessage]              = (*UpdateItemCommand)(nil)
	_ gocmd.Commander[DeleteItemMessage]              = (*DeleteItemCommand)(nil)
	_ gocmd.Commander[CreateCategoryMessage]          = (*CreateCategoryCommand)(nil)
	_ gocmd.Commander[DeleteCategoryMessage]          = (*DeleteCategoryCommand)(nil)
	_ gocmd.Commander[CreateItemMessage]              = (*CreateItemCommand)(nil)
	_ gocmd.Commander[UploadItemImagesMessage]        = (*UploadItemImagesCommand)(nil)

	_ SessionService      = (*core.Session)(nil)
	_ CredentialRefresher = (*core.RefreshCoordinator)(nil)
	_ CatalogLoader       = (*core.Catalog)(nil)
	_ CatalogMutator      = (*core.Catalog)(nil)
)
