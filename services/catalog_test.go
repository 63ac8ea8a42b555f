package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stayfinder/models"
)

type fakeSource struct {
	mu    sync.Mutex
	raw   []*models.RawListing
	err   error
	calls int32
	delay time.Duration
}

func (f *fakeSource) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.raw, f.err
}

func (f *fakeSource) set(raw []*models.RawListing, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw, f.err = raw, err
}

type fakeSnapshot struct {
	stored []*models.Listing
	writes int
}

func (f *fakeSnapshot) Write(_ context.Context, listings []*models.Listing) error {
	f.stored = listings
	f.writes++
	return nil
}

func (f *fakeSnapshot) FetchAll(context.Context) ([]*models.Listing, error) {
	return f.stored, nil
}

func rawStays(ids ...string) []*models.RawListing {
	out := make([]*models.RawListing, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.RawListing{ID: models.ListingID(id), Name: models.Text("Stay " + id), Price: "500"})
	}
	return out
}

func newTestCatalog(src ListingSource) *Catalog {
	logger := newTestLogger()
	return NewCatalog(src, NewCleaner(logger), logger)
}

func TestCatalogUnavailableBeforeFirstLoad(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	c := newTestCatalog(src)

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh should report the fetch error")
	}
	_, err := c.Listings()
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("Listings error = %v; want ErrCatalogUnavailable", err)
	}
	if !errors.Is(err, src.err) {
		t.Errorf("Listings error %v should carry the fetch error", err)
	}
}

func TestCatalogEmptySetIsNotUnavailable(t *testing.T) {
	c := newTestCatalog(&fakeSource{raw: []*models.RawListing{}})
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	listings, err := c.Listings()
	if err != nil {
		t.Fatalf("empty upstream must still load: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings", len(listings))
	}
}

func TestCatalogKeepsLastGoodSetOnFailure(t *testing.T) {
	src := &fakeSource{raw: rawStays("1", "2")}
	c := newTestCatalog(src)
	ctx := context.Background()

	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	src.set(nil, errors.New("timeout"))
	if err := c.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error")
	}

	listings, err := c.Listings()
	if err != nil || len(listings) != 2 {
		t.Errorf("Listings() = %d, %v; want the previous 2 listings", len(listings), err)
	}
}

func TestCatalogGet(t *testing.T) {
	c := newTestCatalog(&fakeSource{raw: rawStays("1", "2")})
	if _, err := c.Get("1"); !errors.Is(err, ErrCatalogUnavailable) {
		t.Errorf("Get before load: %v", err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	l, err := c.Get("2")
	if err != nil || l.Name != "Stay 2" {
		t.Errorf("Get(2) = %+v, %v", l, err)
	}
	if _, err := c.Get("99"); !errors.Is(err, ErrListingNotFound) {
		t.Errorf("Get(99) = %v; want ErrListingNotFound", err)
	}
}

func TestCatalogSharesConcurrentRefreshes(t *testing.T) {
	src := &fakeSource{raw: rawStays("1"), delay: 50 * time.Millisecond}
	c := newTestCatalog(src)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Refresh(context.Background())
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&src.calls); calls >= 10 {
		t.Errorf("expected shared fetches, source called %d times", calls)
	}
}

func TestCatalogSnapshotRoundTrip(t *testing.T) {
	snap := &fakeSnapshot{}
	src := &fakeSource{raw: rawStays("1", "2", "3")}

	first := newTestCatalog(src)
	first.SetSnapshot(snap)
	if err := first.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if snap.writes != 1 || len(snap.stored) != 3 {
		t.Fatalf("snapshot: %d writes, %d stored", snap.writes, len(snap.stored))
	}

	down := &fakeSource{err: errors.New("upstream down")}
	second := newTestCatalog(down)
	second.SetSnapshot(snap)
	_ = second.Refresh(context.Background())

	listings, err := second.Listings()
	if err != nil || len(listings) != 3 {
		t.Errorf("restart should serve the snapshot: %d, %v", len(listings), err)
	}
}

func TestCatalogEnsureLoadsOnDemand(t *testing.T) {
	src := &fakeSource{raw: rawStays("1")}
	c := newTestCatalog(src)

	listings, err := c.Ensure(context.Background())
	if err != nil || len(listings) != 1 {
		t.Errorf("Ensure() = %d, %v", len(listings), err)
	}
	_, _ = c.Ensure(context.Background())
	if calls := atomic.LoadInt32(&src.calls); calls != 1 {
		t.Errorf("loaded catalog refetched: %d calls", calls)
	}
}

func TestCatalogLocalListingsSurviveRefresh(t *testing.T) {
	src := &fakeSource{raw: rawStays("1")}
	c := newTestCatalog(src)
	ctx := context.Background()
	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	c.AddLocal(&models.Listing{ID: "local-1", Name: "Host stay"})
	if c.Size() != 2 {
		t.Fatalf("Size after AddLocal = %d; want 2", c.Size())
	}

	src.set(rawStays("1", "2"), nil)
	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("local-1"); err != nil {
		t.Errorf("local listing lost on refresh: %v", err)
	}
	if c.Size() != 3 {
		t.Errorf("Size = %d; want 3", c.Size())
	}
}
