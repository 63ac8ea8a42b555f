package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stayfinder/models"
	"stayfinder/utils"
)

// ListingSource produces the raw listing set, e.g. the REST endpoint or the
// browser scraper.
type ListingSource interface {
	Fetch(ctx context.Context) ([]*models.RawListing, error)
}

// SnapshotStore mirrors the last good catalog so a restart can serve
// listings while the upstream is down.
type SnapshotStore interface {
	Write(ctx context.Context, listings []*models.Listing) error
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}

// Catalog holds the current cleaned listing set. The slice handed out by
// Listings is shared and must be treated as read-only; refreshes swap in a
// new slice rather than modifying the old one.
type Catalog struct {
	source   ListingSource
	cleaner  *Cleaner
	snapshot SnapshotStore
	logger   *utils.Logger

	group singleflight.Group

	mu       sync.RWMutex
	loaded   bool
	fetched  []*models.Listing
	local    []*models.Listing
	listings []*models.Listing
	index    map[models.ListingID]*models.Listing
	lastErr  error
	loadedAt time.Time
}

func NewCatalog(source ListingSource, cleaner *Cleaner, logger *utils.Logger) *Catalog {
	return &Catalog{
		source:  source,
		cleaner: cleaner,
		logger:  logger,
		index:   make(map[models.ListingID]*models.Listing),
	}
}

// SetSnapshot attaches an optional snapshot store. Call before the first
// Refresh.
func (c *Catalog) SetSnapshot(store SnapshotStore) {
	c.snapshot = store
}

// Refresh fetches, cleans and installs a new listing set. Concurrent callers
// share one outstanding fetch.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	if shared {
		c.logger.Debug("[catalog] Joined an in-flight refresh")
	}
	return err
}

func (c *Catalog) refresh(ctx context.Context) error {
	start := time.Now()
	raw, err := c.source.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		loaded := c.loaded
		c.mu.Unlock()

		c.logger.Error("[catalog] Fetch failed: %v", err)
		if !loaded {
			c.restoreSnapshot(ctx)
		}
		return fmt.Errorf("catalog: refresh: %w", err)
	}

	listings := c.cleaner.Clean(raw)
	c.install(listings)

	c.logger.Info("[catalog] Loaded %d listings in %v", len(listings), time.Since(start).Round(time.Millisecond))

	if c.snapshot != nil {
		if err := c.snapshot.Write(ctx, listings); err != nil {
			c.logger.Warn("[catalog] Snapshot write failed: %v", err)
		}
	}
	return nil
}

func (c *Catalog) restoreSnapshot(ctx context.Context) {
	if c.snapshot == nil {
		return
	}
	listings, err := c.snapshot.FetchAll(ctx)
	if err != nil {
		c.logger.Warn("[catalog] Snapshot read failed: %v", err)
		return
	}
	if len(listings) == 0 {
		return
	}
	c.install(listings)
	c.logger.Warn("[catalog] Serving %d listings from snapshot", len(listings))
}

func (c *Catalog) install(fetched []*models.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetched = fetched
	c.rebuild()
	c.loaded = true
	c.lastErr = nil
	c.loadedAt = time.Now()
}

// rebuild merges fetched and local listings. Must be called with mu held.
func (c *Catalog) rebuild() {
	listings := make([]*models.Listing, 0, len(c.fetched)+len(c.local))
	index := make(map[models.ListingID]*models.Listing, len(c.fetched)+len(c.local))
	for _, l := range c.fetched {
		listings = append(listings, l)
		index[l.ID] = l
	}
	for _, l := range c.local {
		if _, dup := index[l.ID]; dup {
			continue
		}
		listings = append(listings, l)
		index[l.ID] = l
	}
	c.listings = listings
	c.index = index
}

// AddLocal adds a listing that only this process knows about. It survives
// refreshes and is shadowed once the source returns the same id.
func (c *Catalog) AddLocal(l *models.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.local = append(c.local, l)
	if c.loaded {
		c.rebuild()
	}
}

// Listings returns the current snapshot, or ErrCatalogUnavailable if nothing
// has been loaded yet.
func (c *Catalog) Listings() ([]*models.Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, c.unavailable()
	}
	return c.listings, nil
}

// Ensure returns the snapshot, attempting one refresh first if nothing has
// been loaded yet.
func (c *Catalog) Ensure(ctx context.Context) ([]*models.Listing, error) {
	if listings, err := c.Listings(); err == nil {
		return listings, nil
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("[catalog] On-demand refresh failed: %v", err)
	}
	return c.Listings()
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id models.ListingID) (*models.Listing, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, c.unavailable()
	}
	l, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrListingNotFound, id)
	}
	return l, nil
}

// Size returns the number of listings currently held.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listings)
}

// LoadedAt returns when the current snapshot was installed.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// unavailable must be called with mu held.
func (c *Catalog) unavailable() error {
	if c.lastErr != nil {
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, c.lastErr)
	}
	return ErrCatalogUnavailable
}
