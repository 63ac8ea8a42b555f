package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayfinder/models"
)

func TestDecodeListingsBareArray(t *testing.T) {
	res, err := DecodeListings([]byte(`[{"id": 1, "name": "A", "price": 500}, {"id": "b2", "name": "B", "price": "650"}]`))
	require.NoError(t, err)
	require.Len(t, res.Listings, 2)
	assert.Equal(t, models.ListingID("1"), res.Listings[0].ID)
	assert.Equal(t, models.ListingID("b2"), res.Listings[1].ID)
	assert.Equal(t, models.Text("650"), res.Listings[1].Price)
	assert.Zero(t, res.Skipped)
}

func TestDecodeListingsWrapped(t *testing.T) {
	res, err := DecodeListings([]byte(`{"listings": [{"id": 7, "name": "Wrapped"}]}`))
	require.NoError(t, err)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, models.Text("Wrapped"), res.Listings[0].Name)
}

func TestDecodeListingsEmptyShapes(t *testing.T) {
	for _, body := range []string{`[]`, `{"listings": []}`} {
		res, err := DecodeListings([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, res.Listings, body)
	}
}

func TestDecodeListingsInvalidFormat(t *testing.T) {
	for _, body := range []string{``, `null`, `"listings"`, `42`, `{"items": []}`, `{"listings": 3}`, `[1, 2`} {
		_, err := DecodeListings([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidFormat, "body %q", body)
	}
}

func TestDecodeListingsSkipsBadRecords(t *testing.T) {
	res, err := DecodeListings([]byte(`[{"id": 1, "name": "ok"}, "not a listing", {"id": 2, "features": {"a": 1}}, {"id": 3}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Listings, 2)
	assert.Equal(t, models.ListingID("3"), res.Listings[1].ID)
}
