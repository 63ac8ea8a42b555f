package models

import (
	"encoding/json"
	"strings"
)

// FavoritesStorageKey is the well-known key the favorite set lives under.
const FavoritesStorageKey = "favorites"

// DefaultOwner is the owner used when a client does not identify itself.
const DefaultOwner = ""

// FavoritesKey returns the storage key of owner's favorite set.
func FavoritesKey(owner string) string {
	if owner == DefaultOwner {
		return FavoritesStorageKey
	}
	return FavoritesStorageKey + ":" + owner
}

// FavoriteSet is an insertion-ordered set of listing ids. It is a value:
// Toggle and Remove return a new set and leave the receiver unchanged.
type FavoriteSet struct {
	ids   []ListingID
	index map[ListingID]struct{}
}

// NewFavoriteSet builds a set from ids, dropping blanks and duplicates.
func NewFavoriteSet(ids ...ListingID) FavoriteSet {
	s := FavoriteSet{
		ids:   make([]ListingID, 0, len(ids)),
		index: make(map[ListingID]struct{}, len(ids)),
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports membership of id.
func (s FavoriteSet) Contains(id ListingID) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids in the set.
func (s FavoriteSet) Len() int { return len(s.ids) }

// IDs returns the ids in insertion order.
func (s FavoriteSet) IDs() []ListingID {
	out := make([]ListingID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Toggle flips the membership of id.
func (s FavoriteSet) Toggle(id ListingID) FavoriteSet {
	if s.Contains(id) {
		return s.Remove(id)
	}
	return NewFavoriteSet(append(s.IDs(), id)...)
}

// Remove drops id if present.
func (s FavoriteSet) Remove(id ListingID) FavoriteSet {
	kept := make([]ListingID, 0, len(s.ids))
	for _, existing := range s.ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return NewFavoriteSet(kept...)
}

// MarshalJSON encodes the set as a JSON array of ids.
func (s FavoriteSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON decodes a JSON array. Elements may be bare ids or objects
// carrying an "id" field; anything else is skipped.
func (s *FavoriteSet) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}

	ids := make([]ListingID, 0, len(elems))
	for _, raw := range elems {
		var id ListingID
		if err := json.Unmarshal(raw, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var withID struct {
			ID ListingID `json:"id"`
		}
		if err := json.Unmarshal(raw, &withID); err == nil {
			ids = append(ids, withID.ID)
		}
	}
	*s = NewFavoriteSet(ids...)
	return nil
}

// ParseFavoriteSet decodes persisted favorites. Absent or unreadable data is
// an empty set, never an error.
func ParseFavoriteSet(data []byte) FavoriteSet {
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewFavoriteSet()
	}
	var s FavoriteSet
	if err := json.Unmarshal(data, &s); err != nil {
		return NewFavoriteSet()
	}
	return s
}
