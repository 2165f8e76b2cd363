package core

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type CategoryInput struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return BadInputError("core: category name is required")
	}
	return nil
}

type ItemInput struct {
	CategoryID     EntityID      `json:"category_id"`
	SubCategoryID  *EntityID     `json:"sub_category_id,omitempty"`
	Name           string        `json:"name"`
	Price          Amount        `json:"price"`
	PackagingPrice Amount        `json:"packaging_price"`
	GSTRate        Amount        `json:"gst_rate"`
	ItemType       string        `json:"item_type,omitempty"`
	IsActive       bool          `json:"is_active"`
	DisplayOrder   int           `json:"display_order"`
	Variants       []ItemVariant `json:"variants,omitempty"`
	AddOns         []ItemAddOn   `json:"add_ons,omitempty"`
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(string(in.CategoryID)) == "" {
		return BadInputError("core: item category id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return BadInputError("core: item name is required")
	}
	if in.Price < 0 || in.PackagingPrice < 0 || in.GSTRate < 0 {
		return BadInputError("core: item amounts must not be negative")
	}
	return nil
}

type statusPatch struct {
	IsActive bool `json:"is_active"`
}

type statusResult struct {
	IsActive *bool `json:"is_active"`
}

func ItemMutationKey(id EntityID) string        { return "item:" + string(id) }
func CategoryMutationKey(id EntityID) string    { return "category:" + string(id) }
func SubCategoryMutationKey(id EntityID) string { return "subcategory:" + string(id) }

// ToggleItemActive flips the item's active flag locally, then confirms it
// remotely. The flag is rolled back to its exact prior value on failure.
func (c *Catalog) ToggleItemActive(ctx context.Context, categoryID EntityID, itemID EntityID) (item Item, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.toggle_item_active", err, map[string]any{
			"category_id": string(categoryID),
			"item_id":     string(itemID),
		})
	}()

	desired := false
	item, err = RunOptimistic(ctx, c.guard, ItemMutationKey(itemID), OptimisticMutation[Item]{
		Lock: &c.mu,
		Capture: func() (Item, error) {
			return c.itemLocked(categoryID, itemID)
		},
		Apply: func(previous Item) error {
			desired = !previous.IsActive
			c.updateItemLocked(categoryID, itemID, func(target *Item) { target.IsActive = desired })
			return nil
		},
		Remote: func(ctx context.Context) (Item, error) {
			active, err := c.sendStatus(ctx, desired, "items", string(itemID), "status")
			return Item{ID: itemID, IsActive: active}, err
		},
		Reconcile: func(_ Item, server Item) {
			c.updateItemLocked(categoryID, itemID, func(target *Item) { target.IsActive = server.IsActive })
		},
		Restore: func(previous Item) {
			c.updateItemLocked(categoryID, itemID, func(target *Item) { target.IsActive = previous.IsActive })
		},
	})
	c.persist(ctx)
	if err != nil {
		return Item{}, err
	}
	current, _ := c.Item(categoryID, itemID)
	return current, nil
}

func (c *Catalog) ToggleCategoryActive(ctx context.Context, categoryID EntityID) (category Category, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.toggle_category_active", err, map[string]any{
			"category_id": string(categoryID),
		})
	}()

	desired := false
	_, err = RunOptimistic(ctx, c.guard, CategoryMutationKey(categoryID), OptimisticMutation[bool]{
		Lock: &c.mu,
		Capture: func() (bool, error) {
			index := c.categoryIndexLocked(categoryID)
			if index < 0 {
				return false, NotFoundError("category not found")
			}
			return c.categories[index].IsActive, nil
		},
		Apply: func(previous bool) error {
			desired = !previous
			c.setCategoryActiveLocked(categoryID, desired)
			return nil
		},
		Remote: func(ctx context.Context) (bool, error) {
			return c.sendStatus(ctx, desired, "categories", string(categoryID), "status")
		},
		Reconcile: func(_ bool, server bool) {
			c.setCategoryActiveLocked(categoryID, server)
		},
		Restore: func(previous bool) {
			c.setCategoryActiveLocked(categoryID, previous)
		},
	})
	c.persist(ctx)
	if err != nil {
		return Category{}, err
	}
	category, _ = c.Category(categoryID)
	return category, nil
}

func (c *Catalog) ToggleSubCategoryActive(ctx context.Context, categoryID EntityID, subCategoryID EntityID) (sub SubCategory, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.toggle_subcategory_active", err, map[string]any{
			"category_id":     string(categoryID),
			"sub_category_id": string(subCategoryID),
		})
	}()

	desired := false
	sub, err = RunOptimistic(ctx, c.guard, SubCategoryMutationKey(subCategoryID), OptimisticMutation[SubCategory]{
		Lock: &c.mu,
		Capture: func() (SubCategory, error) {
			return c.subCategoryLocked(categoryID, subCategoryID)
		},
		Apply: func(previous SubCategory) error {
			desired = !previous.IsActive
			c.setSubCategoryActiveLocked(categoryID, subCategoryID, desired)
			return nil
		},
		Remote: func(ctx context.Context) (SubCategory, error) {
			active, err := c.sendStatus(ctx, desired, "subcategories", string(subCategoryID), "status")
			return SubCategory{ID: subCategoryID, IsActive: active}, err
		},
		Reconcile: func(_ SubCategory, server SubCategory) {
			c.setSubCategoryActiveLocked(categoryID, subCategoryID, server.IsActive)
		},
		Restore: func(previous SubCategory) {
			c.setSubCategoryActiveLocked(categoryID, subCategoryID, previous.IsActive)
		},
	})
	c.persist(ctx)
	if err != nil {
		return SubCategory{}, err
	}
	c.mu.Lock()
	sub, _ = c.subCategoryLocked(categoryID, subCategoryID)
	c.mu.Unlock()
	return sub, nil
}

// UpdateItem replaces the cached item with item, sends it, and keeps the
// server's version on success.
func (c *Catalog) UpdateItem(ctx context.Context, categoryID EntityID, item Item) (updated Item, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.update_item", err, map[string]any{
			"category_id": string(categoryID),
			"item_id":     string(item.ID),
		})
	}()
	if strings.TrimSpace(string(item.ID)) == "" {
		return Item{}, BadInputError("core: item id is required")
	}

	proposed := cloneItem(item)
	_, err = RunOptimistic(ctx, c.guard, ItemMutationKey(item.ID), OptimisticMutation[Item]{
		Lock: &c.mu,
		Capture: func() (Item, error) {
			return c.itemLocked(categoryID, item.ID)
		},
		Apply: func(Item) error {
			c.replaceItemLocked(categoryID, proposed)
			return nil
		},
		Remote: func(ctx context.Context) (Item, error) {
			body, err := json.Marshal(proposed)
			if err != nil {
				return Item{}, err
			}
			server, err := c.send(ctx, http.MethodPut, http.StatusOK, body, "items", string(item.ID))
			if err != nil {
				return Item{}, err
			}
			return decodeEntity(server, proposed)
		},
		Reconcile: func(_ Item, server Item) {
			if server.ID == "" {
				server.ID = item.ID
			}
			c.replaceItemLocked(categoryID, server)
		},
		Restore: func(previous Item) {
			c.replaceItemLocked(categoryID, previous)
		},
	})
	c.persist(ctx)
	if err != nil {
		return Item{}, err
	}
	updated, _ = c.Item(categoryID, item.ID)
	return updated, nil
}

type removedItem struct {
	item  Item
	index int
}

// DeleteItem removes the item locally before the remote call and re-inserts
// it at its original position if the call fails.
func (c *Catalog) DeleteItem(ctx context.Context, categoryID EntityID, itemID EntityID) (err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.delete_item", err, map[string]any{
			"category_id": string(categoryID),
			"item_id":     string(itemID),
		})
	}()

	_, err = RunOptimistic(ctx, c.guard, ItemMutationKey(itemID), OptimisticMutation[removedItem]{
		Lock: &c.mu,
		Capture: func() (removedItem, error) {
			categoryIndex := c.categoryIndexLocked(categoryID)
			if categoryIndex < 0 {
				return removedItem{}, NotFoundError("category not found")
			}
			itemIndex := c.categories[categoryIndex].ItemIndex(itemID)
			if itemIndex < 0 {
				return removedItem{}, NotFoundError("item not found")
			}
			return removedItem{item: cloneItem(c.categories[categoryIndex].Items[itemIndex]), index: itemIndex}, nil
		},
		Apply: func(previous removedItem) error {
			categoryIndex := c.categoryIndexLocked(categoryID)
			items := c.categories[categoryIndex].Items
			c.categories[categoryIndex].Items = append(items[:previous.index:previous.index], items[previous.index+1:]...)
			return nil
		},
		Remote: func(ctx context.Context) (removedItem, error) {
			_, err := c.send(ctx, http.MethodDelete, http.StatusOK, nil, "items", string(itemID))
			return removedItem{}, err
		},
		Restore: func(previous removedItem) {
			categoryIndex := c.categoryIndexLocked(categoryID)
			if categoryIndex < 0 || c.categories[categoryIndex].ItemIndex(itemID) >= 0 {
				return
			}
			items := c.categories[categoryIndex].Items
			index := min(previous.index, len(items))
			restored := make([]Item, 0, len(items)+1)
			restored = append(restored, items[:index]...)
			restored = append(restored, previous.item)
			restored = append(restored, items[index:]...)
			c.categories[categoryIndex].Items = restored
		},
	})
	c.persist(ctx)
	return err
}

// CreateCategory is server first. Pagination is reset afterwards since the
// new category may land on any page.
func (c *Catalog) CreateCategory(ctx context.Context, input CategoryInput) (created Category, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.create_category", err, map[string]any{
			"category_id": string(created.ID),
		})
	}()
	if err := input.Validate(); err != nil {
		return Category{}, err
	}
	body, err := json.Marshal(input)
	if err != nil {
		return Category{}, InternalError(err, "core: encode category failed")
	}
	raw, err := c.send(ctx, http.MethodPost, http.StatusCreated, body, "categories")
	if err != nil {
		return Category{}, err
	}
	created, err = decodeEntity(raw, Category{Name: input.Name, Description: input.Description, DisplayOrder: input.DisplayOrder, IsActive: input.IsActive})
	if err != nil {
		return Category{}, err
	}
	c.resetAfterMutation(ctx, "catalog.create_category")
	return cloneCategory(created), nil
}

func (c *Catalog) DeleteCategory(ctx context.Context, categoryID EntityID) (err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.delete_category", err, map[string]any{
			"category_id": string(categoryID),
		})
	}()
	release, err := c.guard.Acquire(CategoryMutationKey(categoryID))
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.send(ctx, http.MethodDelete, http.StatusOK, nil, "categories", string(categoryID)); err != nil {
		return err
	}
	c.mu.Lock()
	if index := c.categoryIndexLocked(categoryID); index >= 0 {
		c.categories = append(c.categories[:index:index], c.categories[index+1:]...)
	}
	c.mu.Unlock()
	c.persist(ctx)
	c.resetAfterMutation(ctx, "catalog.delete_category")
	return nil
}

// CreateItem is server first; the created item is merged into its cached
// category when that category is loaded.
func (c *Catalog) CreateItem(ctx context.Context, input ItemInput) (created Item, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.create_item", err, map[string]any{
			"category_id": string(input.CategoryID),
			"item_id":     string(created.ID),
		})
	}()
	if err := input.Validate(); err != nil {
		return Item{}, err
	}
	body, err := json.Marshal(input)
	if err != nil {
		return Item{}, InternalError(err, "core: encode item failed")
	}
	raw, err := c.send(ctx, http.MethodPost, http.StatusCreated, body, "items")
	if err != nil {
		return Item{}, err
	}
	created, err = decodeEntity(raw, Item{})
	if err != nil {
		return Item{}, err
	}
	if strings.TrimSpace(string(created.ID)) == "" {
		return Item{}, DecodeError(nil).WithMetadata(map[string]any{"reason": "created item has no id"})
	}
	c.mu.Lock()
	if index := c.categoryIndexLocked(input.CategoryID); index >= 0 {
		c.categories[index].Items = mergeItems(c.categories[index].Items, []Item{created})
	}
	c.mu.Unlock()
	c.persist(ctx)
	return cloneItem(created), nil
}

// UploadItemImages sends images as multipart form data and adopts the image
// references the server reports for the item.
func (c *Catalog) UploadItemImages(ctx context.Context, categoryID EntityID, itemID EntityID, files []ImageFile) (item Item, err error) {
	startedAt := time.Now()
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.upload_item_images", err, map[string]any{
			"category_id": string(categoryID),
			"item_id":     string(itemID),
			"files":       len(files),
		})
	}()
	release, err := c.guard.Acquire(ItemMutationKey(itemID))
	if err != nil {
		return Item{}, err
	}
	defer release()

	body, contentType, err := EncodeImageUpload("images", files)
	if err != nil {
		return Item{}, err
	}
	req := TransportRequest{
		Method:      http.MethodPost,
		URL:         endpoint(c.baseURL, "items", string(itemID), "images"),
		Headers:     map[string]string{"Accept": "application/json"},
		Body:        body,
		ContentType: contentType,
	}
	resp, err := c.executor.Execute(ctx, req, AuthRequired)
	if err != nil {
		return Item{}, err
	}
	envelope, err := DecodeEnvelope[json.RawMessage](resp, http.StatusOK)
	if err != nil {
		return Item{}, err
	}
	server, err := decodeEntity(envelope.Data, Item{ID: itemID})
	if err != nil {
		return Item{}, err
	}

	c.mu.Lock()
	c.updateItemLocked(categoryID, itemID, func(target *Item) {
		target.ImageRefs = append([]string(nil), server.ImageRefs...)
	})
	c.mu.Unlock()
	c.persist(ctx)
	item, _ = c.Item(categoryID, itemID)
	return item, nil
}

func (c *Catalog) resetAfterMutation(ctx context.Context, operation string) {
	if _, err := c.Reset(ctx); err != nil {
		c.observer.logWarn(ctx, operation+" reload failed", map[string]any{"error": err.Error()})
	}
}

// send performs an authorized JSON call below the catalog base url and
// returns the raw envelope data.
func (c *Catalog) send(ctx context.Context, method string, expectedCode int, body []byte, segments ...string) (json.RawMessage, error) {
	req := jsonRequest(method, endpoint(c.baseURL, segments...), body)
	resp, err := c.executor.Execute(ctx, req, AuthRequired)
	if err != nil {
		return nil, err
	}
	envelope, err := DecodeEnvelope[json.RawMessage](resp, expectedCode)
	if err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// sendStatus patches an active flag and returns the flag the server reports,
// or the requested one when the response does not carry it.
func (c *Catalog) sendStatus(ctx context.Context, active bool, segments ...string) (bool, error) {
	body, err := json.Marshal(statusPatch{IsActive: active})
	if err != nil {
		return active, InternalError(err, "core: encode status failed")
	}
	data, err := c.send(ctx, http.MethodPatch, http.StatusOK, body, segments...)
	if err != nil {
		return active, err
	}
	result, err := decodeEntity(data, statusResult{})
	if err != nil {
		return active, err
	}
	if result.IsActive == nil {
		return active, nil
	}
	return *result.IsActive, nil
}

// decodeEntity decodes data into T, or returns fallback when the server sent
// no entity back.
func decodeEntity[T any](data json.RawMessage, fallback T) (T, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return fallback, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return fallback, DecodeError(err)
	}
	return out, nil
}

func (c *Catalog) itemLocked(categoryID EntityID, itemID EntityID) (Item, error) {
	categoryIndex := c.categoryIndexLocked(categoryID)
	if categoryIndex < 0 {
		return Item{}, NotFoundError("category not found")
	}
	itemIndex := c.categories[categoryIndex].ItemIndex(itemID)
	if itemIndex < 0 {
		return Item{}, NotFoundError("item not found")
	}
	return cloneItem(c.categories[categoryIndex].Items[itemIndex]), nil
}

func (c *Catalog) updateItemLocked(categoryID EntityID, itemID EntityID, update func(*Item)) {
	categoryIndex := c.categoryIndexLocked(categoryID)
	if categoryIndex < 0 {
		return
	}
	itemIndex := c.categories[categoryIndex].ItemIndex(itemID)
	if itemIndex < 0 {
		return
	}
	update(&c.categories[categoryIndex].Items[itemIndex])
}

func (c *Catalog) replaceItemLocked(categoryID EntityID, item Item) {
	c.updateItemLocked(categoryID, item.ID, func(target *Item) { *target = cloneItem(item) })
}

func (c *Catalog) setCategoryActiveLocked(categoryID EntityID, active bool) {
	if index := c.categoryIndexLocked(categoryID); index >= 0 {
		c.categories[index].IsActive = active
	}
}

func (c *Catalog) subCategoryLocked(categoryID EntityID, subCategoryID EntityID) (SubCategory, error) {
	categoryIndex := c.categoryIndexLocked(categoryID)
	if categoryIndex < 0 {
		return SubCategory{}, NotFoundError("category not found")
	}
	subIndex := c.categories[categoryIndex].SubCategoryIndex(subCategoryID)
	if subIndex < 0 {
		return SubCategory{}, NotFoundError("subcategory not found")
	}
	return c.categories[categoryIndex].SubCategories[subIndex], nil
}

func (c *Catalog) setSubCategoryActiveLocked(categoryID EntityID, subCategoryID EntityID, active bool) {
	categoryIndex := c.categoryIndexLocked(categoryID)
	if categoryIndex < 0 {
		return
	}
	if subIndex := c.categories[categoryIndex].SubCategoryIndex(subCategoryID); subIndex >= 0 {
		c.categories[categoryIndex].SubCategories[subIndex].IsActive = active
	}
}
