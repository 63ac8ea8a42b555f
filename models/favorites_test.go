package models

import (
	"encoding/json"
	"testing"
)

func TestFavoriteSetToggleIsItsOwnInverse(t *testing.T) {
	original := NewFavoriteSet("1", "2")

	once := original.Toggle("3")
	if !once.Contains("3") {
		t.Fatal("toggle should add a missing id")
	}
	twice := once.Toggle("3")
	if twice.Contains("3") || twice.Len() != original.Len() {
		t.Errorf("toggling twice should restore membership, got %v", twice.IDs())
	}

	removed := original.Toggle("1")
	if removed.Contains("1") {
		t.Error("toggle should remove a present id")
	}
	if !original.Contains("1") {
		t.Error("toggle must not modify the receiver")
	}
}

func TestFavoriteSetKeepsInsertionOrder(t *testing.T) {
	s := NewFavoriteSet("b", "a", "b", "", "c")
	got, _ := json.Marshal(s)
	if string(got) != `["b","a","c"]` {
		t.Errorf("Marshal = %s; want [\"b\",\"a\",\"c\"]", got)
	}
}

func TestParseFavoriteSetTolerance(t *testing.T) {
	tests := []struct {
		in   string
		want []ListingID
	}{
		{``, nil},
		{`not json`, nil},
		{`{"a":1}`, nil},
		{`[1, "2", 3]`, []ListingID{"1", "2", "3"}},
		{`[{"id": 4, "name": "Loft"}, 5, true]`, []ListingID{"4", "5"}},
	}

	for _, tt := range tests {
		got := ParseFavoriteSet([]byte(tt.in)).IDs()
		if len(got) != len(tt.want) {
			t.Errorf("ParseFavoriteSet(%q) = %v; want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseFavoriteSet(%q) = %v; want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestEmptyFavoriteSetMarshalsAsArray(t *testing.T) {
	var zero FavoriteSet
	got, err := json.Marshal(zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Marshal(zero) = %s; want []", got)
	}
}

func TestFavoritesKey(t *testing.T) {
	if got := FavoritesKey(DefaultOwner); got != "favorites" {
		t.Errorf("default key = %q", got)
	}
	if got := FavoritesKey("tab-1"); got != "favorites:tab-1" {
		t.Errorf("owner key = %q", got)
	}
}
