package catalogsync

import (
	synccommand "github.com/goliatone/go-catalog-sync/command"
	"github.com/goliatone/go-catalog-sync/core"
	syncquery "github.com/goliatone/go-catalog-sync/query"
)

type Commands struct {
	Login                   *synccommand.LoginCommand
	Logout                  *synccommand.LogoutCommand
	Refresh                 *synccommand.RefreshCommand
	LoadFirstPage           *synccommand.LoadFirstPageCommand
	LoadNextPage            *synccommand.LoadNextPageCommand
	ResetCatalog            *synccommand.ResetCatalogCommand
	ClearCatalog            *synccommand.ClearCatalogCommand
	ToggleItemActive        *synccommand.ToggleItemActiveCommand
	ToggleCategoryActive    *synccommand.ToggleCategoryActiveCommand
	ToggleSubCategoryActive *synccommand.ToggleSubCategoryActiveCommand
	UpdateItem              *synccommand.UpdateItemCommand
	DeleteItem              *synccommand.DeleteItemCommand
	CreateCategory          *synccommand.CreateCategoryCommand
	DeleteCategory          *synccommand.DeleteCategoryCommand
	CreateItem              *synccommand.CreateItemCommand
	UploadItemImages        *synccommand.UploadItemImagesCommand
}

type Queries struct {
	Categories       *syncquery.CategoriesQuery
	Category         *syncquery.CategoryQuery
	Item             *syncquery.ItemQuery
	Cursor           *syncquery.CursorQuery
	Loading          *syncquery.LoadingQuery
	Snapshot         *syncquery.SnapshotQuery
	MutationInFlight *syncquery.MutationInFlightQuery
	Profile          *syncquery.ProfileQuery
	TokenState       *syncquery.TokenStateQuery
	Authenticated    *syncquery.AuthenticatedQuery
}

type Facade struct {
	client   *Client
	commands Commands
	queries  Queries
}

// NewFacade exposes a client's operations as go-command handlers.
func NewFacade(client *Client) (*Facade, error) {
	if client == nil || client.Catalog() == nil || client.Session() == nil {
		return nil, core.BadInputError("catalogsync: client is required")
	}
	catalog := client.Catalog()
	session := client.Session()

	facade := &Facade{client: client}
	facade.commands = Commands{
		Login:                   synccommand.NewLoginCommand(session),
		Logout:                  synccommand.NewLogoutCommand(session),
		Refresh:                 synccommand.NewRefreshCommand(client.Refresher()),
		LoadFirstPage:           synccommand.NewLoadFirstPageCommand(catalog),
		LoadNextPage:            synccommand.NewLoadNextPageCommand(catalog),
		ResetCatalog:            synccommand.NewResetCatalogCommand(catalog),
		ClearCatalog:            synccommand.NewClearCatalogCommand(catalog),
		ToggleItemActive:        synccommand.NewToggleItemActiveCommand(catalog),
		ToggleCategoryActive:    synccommand.NewToggleCategoryActiveCommand(catalog),
		ToggleSubCategoryActive: synccommand.NewToggleSubCategoryActiveCommand(catalog),
		UpdateItem:              synccommand.NewUpdateItemCommand(catalog),
		DeleteItem:              synccommand.NewDeleteItemCommand(catalog),
		CreateCategory:          synccommand.NewCreateCategoryCommand(catalog),
		DeleteCategory:          synccommand.NewDeleteCategoryCommand(catalog),
		CreateItem:              synccommand.NewCreateItemCommand(catalog),
		UploadItemImages:        synccommand.NewUploadItemImagesCommand(catalog),
	}
	facade.queries = Queries{
		Categories:       syncquery.NewCategoriesQuery(catalog),
		Category:         syncquery.NewCategoryQuery(catalog),
		Item:             syncquery.NewItemQuery(catalog),
		Cursor:           syncquery.NewCursorQuery(catalog),
		Loading:          syncquery.NewLoadingQuery(catalog),
		Snapshot:         syncquery.NewSnapshotQuery(catalog),
		MutationInFlight: syncquery.NewMutationInFlightQuery(catalog),
		Profile:          syncquery.NewProfileQuery(session),
		TokenState:       syncquery.NewTokenStateQuery(session),
		Authenticated:    syncquery.NewAuthenticatedQuery(session),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Client() *Client {
	if f == nil {
		return nil
	}
	return f.client
}
