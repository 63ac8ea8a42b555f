package services

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"stayfinder/models"
	"stayfinder/utils"
)

// ownerRegexp limits owners to values that are safe as storage keys.
var ownerRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// FavoriteStore persists one favorite set per owner. A store returns an empty
// set for an owner it knows nothing about.
type FavoriteStore interface {
	Load(ctx context.Context, owner string) (models.FavoriteSet, error)
	Save(ctx context.Context, owner string, set models.FavoriteSet) error
	Clear(ctx context.Context, owner string) error
}

// ListingLookup resolves a listing by id.
type ListingLookup interface {
	Get(id models.ListingID) (*models.Listing, error)
}

// ValidateOwner accepts the default owner or a short token of letters,
// digits, '-' and '_'.
func ValidateOwner(owner string) error {
	if owner == models.DefaultOwner || ownerRegexp.MatchString(owner) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
}

// FavoriteService serialises read-modify-write cycles on the favorite sets.
// Concurrent toggles resolve as last writer wins.
type FavoriteService struct {
	store  FavoriteStore
	logger *utils.Logger
	mu     sync.Mutex
}

func NewFavoriteService(store FavoriteStore, logger *utils.Logger) *FavoriteService {
	return &FavoriteService{store: store, logger: logger}
}

// Get returns owner's favorite set.
func (s *FavoriteService) Get(ctx context.Context, owner string) (models.FavoriteSet, error) {
	if err := ValidateOwner(owner); err != nil {
		return models.FavoriteSet{}, err
	}
	set, err := s.store.Load(ctx, owner)
	if err != nil {
		return models.FavoriteSet{}, fmt.Errorf("favorites: load: %w", err)
	}
	return set, nil
}

// Toggle flips the membership of id and persists the new set.
func (s *FavoriteService) Toggle(ctx context.Context, owner string, id models.ListingID) (models.FavoriteSet, error) {
	return s.update(ctx, owner, "toggle", func(set models.FavoriteSet) models.FavoriteSet {
		return set.Toggle(id)
	})
}

// Set adds or removes id so that its membership equals favorite.
func (s *FavoriteService) Set(ctx context.Context, owner string, id models.ListingID, favorite bool) (models.FavoriteSet, error) {
	return s.update(ctx, owner, "set", func(set models.FavoriteSet) models.FavoriteSet {
		if set.Contains(id) == favorite {
			return set
		}
		return set.Toggle(id)
	})
}

// Remove drops id from owner's set.
func (s *FavoriteService) Remove(ctx context.Context, owner string, id models.ListingID) (models.FavoriteSet, error) {
	return s.update(ctx, owner, "remove", func(set models.FavoriteSet) models.FavoriteSet {
		return set.Remove(id)
	})
}

// Clear empties owner's set.
func (s *FavoriteService) Clear(ctx context.Context, owner string) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx, owner); err != nil {
		return fmt.Errorf("favorites: clear: %w", err)
	}
	s.logger.Info("[favorites] Cleared favorites of %q", owner)
	return nil
}

// Listings resolves owner's favorites against the catalog in favorite order.
// Ids no longer in the catalog are skipped.
func (s *FavoriteService) Listings(ctx context.Context, owner string, catalog ListingLookup) ([]*models.Listing, error) {
	set, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Listing, 0, set.Len())
	for _, id := range set.IDs() {
		l, err := catalog.Get(id)
		if err != nil {
			s.logger.Debug("[favorites] Favorite %s not in catalog: %v", id, err)
			continue
		}
		cp := *l
		cp.IsFavorite = true
		out = append(out, &cp)
	}
	return out, nil
}

func (s *FavoriteService) update(ctx context.Context, owner, op string, fn func(models.FavoriteSet) models.FavoriteSet) (models.FavoriteSet, error) {
	if err := ValidateOwner(owner); err != nil {
		return models.FavoriteSet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Load(ctx, owner)
	if err != nil {
		return models.FavoriteSet{}, fmt.Errorf("favorites: %s: load: %w", op, err)
	}
	next := fn(current)
	if err := s.store.Save(ctx, owner, next); err != nil {
		return models.FavoriteSet{}, fmt.Errorf("favorites: %s: save: %w", op, err)
	}
	s.logger.Debug("[favorites] %s for %q: %d → %d", op, owner, current.Len(), next.Len())
	return next, nil
}
