package core

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type catalogPagePayload struct {
	Categories []Category `json:"categories"`
}

type CatalogLoading struct {
	First bool
	More  bool
}

// Catalog is the paged, persisted copy of the partner catalog. Page loads are
// expected to be issued sequentially; overlapping loads are rejected by the
// fetch guards instead of being serialized.
type Catalog struct {
	mu        sync.Mutex
	persistMu sync.Mutex

	executor  Executor
	snapshots SnapshotStore
	guard     *MutationGuard
	baseURL   string
	pageSize  int
	bodyLimit int64
	observer  observer
	loaded    *FreshnessCache[Cursor]

	categories    []Category
	cursor        Cursor
	fetchingFirst bool
	fetchingMore  bool
	firstDone     chan struct{}
	generation    uint64
}

func NewCatalog(
	executor Executor,
	snapshots SnapshotStore,
	guard *MutationGuard,
	cfg Config,
	logger Logger,
) (*Catalog, error) {
	if executor == nil {
		return nil, BadInputError("core: request executor is required")
	}
	if err := validateBaseURL("catalog_base_url", cfg.CatalogBaseURL); err != nil {
		return nil, BadInputError(err.Error())
	}
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	if guard == nil {
		guard = NewMutationGuard()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Catalog{
		executor:  executor,
		snapshots: snapshots,
		guard:     guard,
		baseURL:   cfg.CatalogBaseURL,
		pageSize:  pageSize,
		bodyLimit: cfg.CatalogPageBodyBytes,
		observer:  newObserver(logger),
		loaded:    NewFreshnessCache[Cursor](0, nil),
		cursor:    InitialCursor(),
	}, nil
}

// Restore pre-populates the catalog from the snapshot store. It reports false
// when no usable snapshot exists or the catalog already holds fetched pages.
// The restored cursor points CurrentPage at the page to fetch next.
func (c *Catalog) Restore(ctx context.Context) (restored bool, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["restored"] = restored
		c.observer.observeOperation(ctx, startedAt, "catalog.restore", err, fields)
	}()

	snapshot, ok, err := c.snapshots.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok || (snapshot.LastFetchedPage <= 0 && len(snapshot.Categories) == 0) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor.LastFetchedPage > 0 || c.fetchingFirst {
		return false, nil
	}
	last := max(snapshot.LastFetchedPage, 0)
	c.categories = MergeCategories(nil, snapshot.Categories)
	c.cursor = Cursor{CurrentPage: last + 1, LastFetchedPage: last, HasMore: true}
	c.loaded.Set(c.cursor)
	fields["last_fetched_page"] = last
	fields["categories"] = len(c.categories)
	return true, nil
}

// LoadFirstPage fetches page 1 and replaces the in-memory categories. A
// failure leaves the existing categories and cursor untouched.
func (c *Catalog) LoadFirstPage(ctx context.Context) (Cursor, error) {
	c.mu.Lock()
	if c.fetchingFirst {
		cursor := c.cursor
		c.mu.Unlock()
		return cursor, errFetchInProgress()
	}
	generation := c.beginFirstLocked()
	c.mu.Unlock()
	return c.loadFirst(ctx, generation)
}

// beginFirstLocked claims the page-1 fetch. Bumping the generation drops any
// older page result still in flight.
func (c *Catalog) beginFirstLocked() uint64 {
	c.fetchingFirst = true
	c.firstDone = make(chan struct{})
	c.generation++
	return c.generation
}

func (c *Catalog) loadFirst(ctx context.Context, generation uint64) (cursor Cursor, err error) {
	startedAt := time.Now()
	fields := map[string]any{"page": 1}
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.load_first_page", err, fields)
	}()

	categories, hasMore, err := c.fetchPage(ctx, 1)

	c.mu.Lock()
	c.fetchingFirst = false
	close(c.firstDone)
	c.firstDone = nil
	if err != nil {
		cursor = c.cursor
		c.mu.Unlock()
		return cursor, err
	}
	if generation != c.generation {
		cursor = c.cursor
		c.mu.Unlock()
		fields["discarded"] = true
		return cursor, errFetchSuperseded(1)
	}
	c.categories = MergeCategories(nil, categories)
	c.cursor = Cursor{CurrentPage: 1, LastFetchedPage: 1, HasMore: hasMore}
	c.loaded.Set(c.cursor)
	cursor = c.cursor
	c.mu.Unlock()

	fields["categories"] = len(categories)
	fields["has_more"] = hasMore
	c.persist(ctx)
	return cursor, nil
}

// LoadNextPage fetches LastFetchedPage+1 and merges it. On failure the cursor
// stays exactly as it was, so the call can be retried.
func (c *Catalog) LoadNextPage(ctx context.Context) (cursor Cursor, err error) {
	c.mu.Lock()
	switch {
	case c.fetchingFirst || c.fetchingMore:
		cursor = c.cursor
		c.mu.Unlock()
		return cursor, errFetchInProgress()
	case !c.cursor.HasMore:
		cursor = c.cursor
		c.mu.Unlock()
		return cursor, errNoMorePages()
	}
	c.fetchingMore = true
	page := c.cursor.NextPage()
	generation := c.generation
	c.mu.Unlock()

	startedAt := time.Now()
	fields := map[string]any{"page": page}
	defer func() {
		c.observer.observeOperation(ctx, startedAt, "catalog.load_next_page", err, fields)
	}()

	categories, hasMore, err := c.fetchPage(ctx, page)

	c.mu.Lock()
	c.fetchingMore = false
	if err != nil {
		cursor = c.cursor
		c.mu.Unlock()
		return cursor, err
	}
	if generation != c.generation {
		cursor = c.cursor
		c.mu.Unlock()
		fields["discarded"] = true
		return cursor, errFetchSuperseded(page)
	}
	c.categories = MergeCategories(c.categories, categories)
	c.cursor = Cursor{CurrentPage: page, LastFetchedPage: page, HasMore: hasMore}
	c.loaded.Set(c.cursor)
	cursor = c.cursor
	c.mu.Unlock()

	fields["categories"] = len(categories)
	fields["has_more"] = hasMore
	c.persist(ctx)
	return cursor, nil
}

// Reset restarts pagination and reloads page 1. Cached categories stay visible
// until the reload succeeds. A page-1 fetch already in flight is superseded;
// Reset waits for it to settle and then fetches page 1 itself.
func (c *Catalog) Reset(ctx context.Context) (Cursor, error) {
	c.mu.Lock()
	c.cursor = InitialCursor()
	c.generation++
	c.loaded.Invalidate()
	for c.fetchingFirst {
		done := c.firstDone
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return c.Cursor(), ctx.Err()
		}
		c.mu.Lock()
	}
	generation := c.beginFirstLocked()
	c.mu.Unlock()
	return c.loadFirst(ctx, generation)
}

// Clear drops the catalog from memory and from the snapshot store.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.categories = nil
	c.cursor = InitialCursor()
	c.generation++
	c.loaded.Invalidate()
	c.mu.Unlock()

	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	err := c.snapshots.Clear(ctx)
	c.observer.observeOperation(ctx, time.Now(), "catalog.clear", err, nil)
	return err
}

// EnsureLoaded loads page 1 once, unless pages were already fetched or
// restored, and returns the cached categories.
func (c *Catalog) EnsureLoaded(ctx context.Context) ([]Category, error) {
	_, err := c.loaded.Get(ctx, func(ctx context.Context) (Cursor, error) {
		return c.LoadFirstPage(ctx)
	})
	if err != nil {
		return nil, err
	}
	return c.Categories(), nil
}

func (c *Catalog) Categories() []Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneCategories(c.categories)
}

func (c *Catalog) Category(id EntityID) (Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := c.categoryIndexLocked(id)
	if index < 0 {
		return Category{}, false
	}
	return cloneCategory(c.categories[index]), true
}

func (c *Catalog) Item(categoryID EntityID, itemID EntityID) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	categoryIndex := c.categoryIndexLocked(categoryID)
	if categoryIndex < 0 {
		return Item{}, false
	}
	itemIndex := c.categories[categoryIndex].ItemIndex(itemID)
	if itemIndex < 0 {
		return Item{}, false
	}
	return cloneItem(c.categories[categoryIndex].Items[itemIndex]), true
}

func (c *Catalog) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Catalog) Loading() CatalogLoading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CatalogLoading{First: c.fetchingFirst, More: c.fetchingMore}
}

// MutationInFlight reports whether key (for example "item:42") is being mutated.
func (c *Catalog) MutationInFlight(key string) bool {
	return c.guard.InFlight(key)
}

func (c *Catalog) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Catalog) snapshotLocked() Snapshot {
	return Snapshot{
		Categories:      cloneCategories(c.categories),
		LastFetchedPage: c.cursor.LastFetchedPage,
	}
}

func (c *Catalog) categoryIndexLocked(id EntityID) int {
	for index, category := range c.categories {
		if category.ID == id {
			return index
		}
	}
	return -1
}

func (c *Catalog) fetchPage(ctx context.Context, page int) ([]Category, bool, error) {
	req := jsonRequest(http.MethodGet, endpoint(c.baseURL, "complete-catalog"), nil)
	req.Query = map[string]string{
		"page": strconv.Itoa(page),
		"size": strconv.Itoa(c.pageSize),
	}
	req.MaxResponseBodyBytes = c.bodyLimit
	resp, err := c.executor.Execute(ctx, req, AuthRequired)
	if err != nil {
		return nil, false, err
	}
	envelope, err := DecodeEnvelope[catalogPagePayload](resp, http.StatusOK)
	if err != nil {
		return nil, false, err
	}
	categories := envelope.Data.Categories
	return categories, ResolveHasMore(envelope.Raw, len(categories), c.pageSize), nil
}

// persist writes the current state. Writes are serialized and each one reads
// the state after taking the write lock, so the latest state lands last. A
// failed write is logged; the in-memory catalog stays authoritative.
func (c *Catalog) persist(ctx context.Context) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	snapshot := c.Snapshot()
	if err := c.snapshots.Save(ctx, snapshot); err != nil {
		c.observer.logError(ctx, "catalog snapshot write failed", map[string]any{
			"error":             err.Error(),
			"last_fetched_page": snapshot.LastFetchedPage,
		})
	}
}
