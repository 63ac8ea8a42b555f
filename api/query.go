package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stayfinder/models"
)

// parseQuery builds a Query from request parameters. Unreadable values are
// ignored rather than rejected, the same as malformed price text.
//
//	q          search text (name or address)
//	price      "min-max"
//	type       property type
//	sort       one of the sort options
//	page       1-based page number
//	available  YYYY-MM-DD
//	bounds     "south,west,north,east"
func parseQuery(c *gin.Context) models.Query {
	q := models.DefaultQuery()
	q.SetSearchText(strings.TrimSpace(c.Query("q")))
	q.SetPriceRange(c.Query("price"))
	q.SetPropertyType(strings.TrimSpace(c.Query("type")))
	q.SetSort(models.ParseSortOption(c.Query("sort")))

	if date := strings.TrimSpace(c.Query("available")); date != "" {
		if _, err := time.Parse("2006-01-02", date); err == nil {
			q.SetAvailableOn(date)
		}
	}
	if raw := c.Query("bounds"); raw != "" {
		if b, ok := models.ParseBounds(raw); ok {
			q.SetBounds(&b)
		}
	}

	// page last: the setters above reset it
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.SetPage(page)
	}
	return q
}
