package command

import (
	"context"
	"time"

	"github.com/goliatone/go-catalog-sync/core"
	gocmd "github.com/goliatone/go-command"
)

type SessionService interface {
	Login(ctx context.Context, req core.LoginRequest) (core.LoginResult, error)
	Logout(ctx context.Context) error
}

type CredentialRefresher interface {
	Refresh(ctx context.Context) (core.CredentialPair, error)
}

type CatalogLoader interface {
	LoadFirstPage(ctx context.Context) (core.Cursor, error)
	LoadNextPage(ctx context.Context) (core.Cursor, error)
	Reset(ctx context.Context) (core.Cursor, error)
	Clear(ctx context.Context) error
}

type CatalogMutator interface {
	ToggleItemActive(ctx context.Context, categoryID core.EntityID, itemID core.EntityID) (core.Item, error)
	ToggleCategoryActive(ctx context.Context, categoryID core.EntityID) (core.Category, error)
	ToggleSubCategoryActive(ctx context.Context, categoryID core.EntityID, subCategoryID core.EntityID) (core.SubCategory, error)
	UpdateItem(ctx context.Context, categoryID core.EntityID, item core.Item) (core.Item, error)
	DeleteItem(ctx context.Context, categoryID core.EntityID, itemID core.EntityID) error
	CreateCategory(ctx context.Context, input core.CategoryInput) (core.Category, error)
	DeleteCategory(ctx context.Context, categoryID core.EntityID) error
	CreateItem(ctx context.Context, input core.ItemInput) (core.Item, error)
	UploadItemImages(ctx context.Context, categoryID core.EntityID, itemID core.EntityID, files []core.ImageFile) (core.Item, error)
}

// LoginOutcome is the login result exposed to callers, without the raw
// credentials.
type LoginOutcome struct {
	Token   core.TokenState
	Profile *core.PartnerProfile
}

type LoginCommand struct {
	service SessionService
}

func NewLoginCommand(service SessionService) *LoginCommand {
	return &LoginCommand{service: service}
}

func (c *LoginCommand) Execute(ctx context.Context, msg LoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	out, err := c.service.Login(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, LoginOutcome{Token: out.Token, Profile: out.Profile})
	return nil
}

type LogoutCommand struct {
	service SessionService
}

func NewLogoutCommand(service SessionService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	return c.service.Logout(ctx)
}

type RefreshCommand struct {
	refresher CredentialRefresher
	now       func() time.Time
}

func NewRefreshCommand(refresher CredentialRefresher) *RefreshCommand {
	return &RefreshCommand{refresher: refresher, now: time.Now}
}

func (c *RefreshCommand) Execute(ctx context.Context, _ RefreshMessage) error {
	if c == nil || c.refresher == nil {
		return commandDependencyError("command: credential refresher is required")
	}
	pair, err := c.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	storeResult(ctx, core.ResolveTokenState(now(), pair, 0))
	return nil
}

type LoadFirstPageCommand struct {
	loader CatalogLoader
}

func NewLoadFirstPageCommand(loader CatalogLoader) *LoadFirstPageCommand {
	return &LoadFirstPageCommand{loader: loader}
}

func (c *LoadFirstPageCommand) Execute(ctx context.Context, _ LoadFirstPageMessage) error {
	if c == nil || c.loader == nil {
		return commandDependencyError("command: catalog loader is required")
	}
	out, err := c.loader.LoadFirstPage(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type LoadNextPageCommand struct {
	loader CatalogLoader
}

func NewLoadNextPageCommand(loader CatalogLoader) *LoadNextPageCommand {
	return &LoadNextPageCommand{loader: loader}
}

func (c *LoadNextPageCommand) Execute(ctx context.Context, _ LoadNextPageMessage) error {
	if c == nil || c.loader == nil {
		return commandDependencyError("command: catalog loader is required")
	}
	out, err := c.loader.LoadNextPage(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ResetCatalogCommand struct {
	loader CatalogLoader
}

func NewResetCatalogCommand(loader CatalogLoader) *ResetCatalogCommand {
	return &ResetCatalogCommand{loader: loader}
}

func (c *ResetCatalogCommand) Execute(ctx context.Context, _ ResetCatalogMessage) error {
	if c == nil || c.loader == nil {
		return commandDependencyError("command: catalog loader is required")
	}
	out, err := c.loader.Reset(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClearCatalogCommand struct {
	loader CatalogLoader
}

func NewClearCatalogCommand(loader CatalogLoader) *ClearCatalogCommand {
	return &ClearCatalogCommand{loader: loader}
}

func (c *ClearCatalogCommand) Execute(ctx context.Context, _ ClearCatalogMessage) error {
	if c == nil || c.loader == nil {
		return commandDependencyError("command: catalog loader is required")
	}
	return c.loader.Clear(ctx)
}

type ToggleItemActiveCommand struct {
	mutator CatalogMutator
}

func NewToggleItemActiveCommand(mutator CatalogMutator) *ToggleItemActiveCommand {
	return &ToggleItemActiveCommand{mutator: mutator}
}

func (c *ToggleItemActiveCommand) Execute(ctx context.Context, msg ToggleItemActiveMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.ToggleItemActive(ctx, msg.CategoryID, msg.ItemID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ToggleCategoryActiveCommand struct {
	mutator CatalogMutator
}

func NewToggleCategoryActiveCommand(mutator CatalogMutator) *ToggleCategoryActiveCommand {
	return &ToggleCategoryActiveCommand{mutator: mutator}
}

func (c *ToggleCategoryActiveCommand) Execute(ctx context.Context, msg ToggleCategoryActiveMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.ToggleCategoryActive(ctx, msg.CategoryID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ToggleSubCategoryActiveCommand struct {
	mutator CatalogMutator
}

func NewToggleSubCategoryActiveCommand(mutator CatalogMutator) *ToggleSubCategoryActiveCommand {
	return &ToggleSubCategoryActiveCommand{mutator: mutator}
}

func (c *ToggleSubCategoryActiveCommand) Execute(ctx context.Context, msg ToggleSubCategoryActiveMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.ToggleSubCategoryActive(ctx, msg.CategoryID, msg.SubCategoryID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateItemCommand struct {
	mutator CatalogMutator
}

func NewUpdateItemCommand(mutator CatalogMutator) *UpdateItemCommand {
	return &UpdateItemCommand{mutator: mutator}
}

func (c *UpdateItemCommand) Execute(ctx context.Context, msg UpdateItemMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.UpdateItem(ctx, msg.CategoryID, msg.Item)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteItemCommand struct {
	mutator CatalogMutator
}

func NewDeleteItemCommand(mutator CatalogMutator) *DeleteItemCommand {
	return &DeleteItemCommand{mutator: mutator}
}

func (c *DeleteItemCommand) Execute(ctx context.Context, msg DeleteItemMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	return c.mutator.DeleteItem(ctx, msg.CategoryID, msg.ItemID)
}

type CreateCategoryCommand struct {
	mutator CatalogMutator
}

func NewCreateCategoryCommand(mutator CatalogMutator) *CreateCategoryCommand {
	return &CreateCategoryCommand{mutator: mutator}
}

func (c *CreateCategoryCommand) Execute(ctx context.Context, msg CreateCategoryMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.CreateCategory(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteCategoryCommand struct {
	mutator CatalogMutator
}

func NewDeleteCategoryCommand(mutator CatalogMutator) *DeleteCategoryCommand {
	return &DeleteCategoryCommand{mutator: mutator}
}

func (c *DeleteCategoryCommand) Execute(ctx context.Context, msg DeleteCategoryMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	return c.mutator.DeleteCategory(ctx, msg.CategoryID)
}

type CreateItemCommand struct {
	mutator CatalogMutator
}

func NewCreateItemCommand(mutator CatalogMutator) *CreateItemCommand {
	return &CreateItemCommand{mutator: mutator}
}

func (c *CreateItemCommand) Execute(ctx context.Context, msg CreateItemMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.CreateItem(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UploadItemImagesCommand struct {
	mutator CatalogMutator
}

func NewUploadItemImagesCommand(mutator CatalogMutator) *UploadItemImagesCommand {
	return &UploadItemImagesCommand{mutator: mutator}
}

func (c *UploadItemImagesCommand) Execute(ctx context.Context, msg UploadItemImagesMessage) error {
	if c == nil || c.mutator == nil {
		return commandDependencyError("command: catalog mutator is required")
	}
	out, err := c.mutator.UploadItemImages(ctx, msg.CategoryID, msg.ItemID, msg.Files)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
