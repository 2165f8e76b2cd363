package command

import (
	"strings"

	"github.com/goliatone/go-catalog-sync/core"
)

const (
	TypeLogin                   = "catalogsync.command.session.login"
	TypeLogout                  = "catalogsync.command.session.logout"
	TypeRefresh                 = "catalogsync.command.credential.refresh"
	TypeLoadFirstPage           = "catalogsync.command.catalog.load_first_page"
	TypeLoadNextPage            = "catalogsync.command.catalog.load_next_page"
	TypeResetCatalog            = "catalogsync.command.catalog.reset"
	TypeClearCatalog            = "catalogsync.command.catalog.clear"
	TypeToggleItemActive        = "catalogsync.command.item.toggle_active"
	TypeToggleCategoryActive    = "catalogsync.command.category.toggle_active"
	TypeToggleSubCategoryActive = "catalogsync.command.sub_category.toggle_active"
	TypeUpdateItem              = "catalogsync.command.item.update"
	TypeDeleteItem              = "catalogsync.command.item.delete"
	TypeCreateCategory          = "catalogsync.command.category.create"
	TypeDeleteCategory          = "catalogsync.command.category.delete"
	TypeCreateItem              = "catalogsync.command.item.create"
	TypeUploadItemImages        = "catalogsync.command.item.upload_images"
)

type LoginMessage struct {
	Request core.LoginRequest
}

func (LoginMessage) Type() string { return TypeLogin }

func (m LoginMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid login request")
}

type LogoutMessage struct{}

func (LogoutMessage) Type() string { return TypeLogout }

func (LogoutMessage) Validate() error { return nil }

type RefreshMessage struct{}

func (RefreshMessage) Type() string { return TypeRefresh }

func (RefreshMessage) Validate() error { return nil }

type LoadFirstPageMessage struct{}

func (LoadFirstPageMessage) Type() string { return TypeLoadFirstPage }

func (LoadFirstPageMessage) Validate() error { return nil }

type LoadNextPageMessage struct{}

func (LoadNextPageMessage) Type() string { return TypeLoadNextPage }

func (LoadNextPageMessage) Validate() error { return nil }

type ResetCatalogMessage struct{}

func (ResetCatalogMessage) Type() string { return TypeResetCatalog }

func (ResetCatalogMessage) Validate() error { return nil }

type ClearCatalogMessage struct{}

func (ClearCatalogMessage) Type() string { return TypeClearCatalog }

func (ClearCatalogMessage) Validate() error { return nil }

type ToggleItemActiveMessage struct {
	CategoryID core.EntityID
	ItemID     core.EntityID
}

func (ToggleItemActiveMessage) Type() string { return TypeToggleItemActive }

func (m ToggleItemActiveMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	return requireID("item_id", m.ItemID)
}

type ToggleCategoryActiveMessage struct {
	CategoryID core.EntityID
}

func (ToggleCategoryActiveMessage) Type() string { return TypeToggleCategoryActive }

func (m ToggleCategoryActiveMessage) Validate() error {
	return requireID("category_id", m.CategoryID)
}

type ToggleSubCategoryActiveMessage struct {
	CategoryID    core.EntityID
	SubCategoryID core.EntityID
}

func (ToggleSubCategoryActiveMessage) Type() string { return TypeToggleSubCategoryActive }

func (m ToggleSubCategoryActiveMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	return requireID("sub_category_id", m.SubCategoryID)
}

type UpdateItemMessage struct {
	CategoryID core.EntityID
	Item       core.Item
}

func (UpdateItemMessage) Type() string { return TypeUpdateItem }

func (m UpdateItemMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	if err := requireID("item.id", m.Item.ID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Item.Name) == "" {
		return commandValidationError("item.name", "item name is required")
	}
	return nil
}

type DeleteItemMessage struct {
	CategoryID core.EntityID
	ItemID     core.EntityID
}

func (DeleteItemMessage) Type() string { return TypeDeleteItem }

func (m DeleteItemMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	return requireID("item_id", m.ItemID)
}

type CreateCategoryMessage struct {
	Input core.CategoryInput
}

func (CreateCategoryMessage) Type() string { return TypeCreateCategory }

func (m CreateCategoryMessage) Validate() error {
	return commandWrapValidation(m.Input.Validate(), "command: invalid category input")
}

type DeleteCategoryMessage struct {
	CategoryID core.EntityID
}

func (DeleteCategoryMessage) Type() string { return TypeDeleteCategory }

func (m DeleteCategoryMessage) Validate() error {
	return requireID("category_id", m.CategoryID)
}

type CreateItemMessage struct {
	Input core.ItemInput
}

func (CreateItemMessage) Type() string { return TypeCreateItem }

func (m CreateItemMessage) Validate() error {
	return commandWrapValidation(m.Input.Validate(), "command: invalid item input")
}

type UploadItemImagesMessage struct {
	CategoryID core.EntityID
	ItemID     core.EntityID
	Files      []core.ImageFile
}

func (UploadItemImagesMessage) Type() string { return TypeUploadItemImages }

func (m UploadItemImagesMessage) Validate() error {
	if err := requireID("category_id", m.CategoryID); err != nil {
		return err
	}
	if err := requireID("item_id", m.ItemID); err != nil {
		return err
	}
	if len(m.Files) == 0 {
		return commandValidationError("files", "at least one image is required")
	}
	for _, file := range m.Files {
		if err := file.Validate(); err != nil {
			return commandWrapValidation(err, "command: invalid image file")
		}
	}
	return nil
}

func requireID(field string, id core.EntityID) error {
	if strings.TrimSpace(string(id)) == "" {
		return commandValidationError(field, field+" is required")
	}
	return nil
}
