package services

import (
	"strings"
	"unicode/utf8"

	"stayfinder/models"
)

// minSuggestLen is the query length that must be exceeded before suggesting.
const minSuggestLen = 2

// Suggest returns up to limit listings whose address or name contains text.
// Text of two characters or fewer yields nothing. limit <= 0 means no cap.
func Suggest(listings []*models.Listing, text string, limit int) []*models.Listing {
	needle := strings.ToLower(strings.TrimSpace(text))
	if utf8.RuneCountInString(needle) <= minSuggestLen {
		return []*models.Listing{}
	}

	out := make([]*models.Listing, 0)
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Address), needle) ||
			strings.Contains(strings.ToLower(l.Name), needle) {
			out = append(out, l)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
