package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"stayfinder/models"
)

// ErrInvalidFormat is returned when a listings response is neither a JSON
// array nor an object with a "listings" array.
var ErrInvalidFormat = errors.New("invalid listings response format")

// DecodeResult carries the decoded records and the number of elements that
// could not be decoded.
type DecodeResult struct {
	Listings []*models.RawListing
	Skipped  int
}

// DecodeListings accepts either response shape the upstream has been seen to
// use: a bare array or {"listings": [...]}. Each element decodes on its own,
// so one bad record does not lose the rest.
func DecodeListings(body []byte) (DecodeResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return DecodeResult{}, fmt.Errorf("%w: empty body", ErrInvalidFormat)
	}

	var elems []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &elems); err != nil {
			return DecodeResult{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case '{':
		var wrapped struct {
			Listings *[]json.RawMessage `json:"listings"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return DecodeResult{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if wrapped.Listings == nil {
			return DecodeResult{}, fmt.Errorf("%w: object without a listings array", ErrInvalidFormat)
		}
		elems = *wrapped.Listings
	default:
		return DecodeResult{}, fmt.Errorf("%w: unexpected %q", ErrInvalidFormat, body[0])
	}

	result := DecodeResult{Listings: make([]*models.RawListing, 0, len(elems))}
	for _, elem := range elems {
		var raw models.RawListing
		if err := json.Unmarshal(elem, &raw); err != nil {
			result.Skipped++
			continue
		}
		result.Listings = append(result.Listings, &raw)
	}
	return result, nil
}
