package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayfinder/models"
	"stayfinder/services"
	"stayfinder/storage"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

type searchResponse struct {
	models.Page
	Window services.Window `json:"window"`
}

type favoriteResponse struct {
	ID         models.ListingID   `json:"id,omitempty"`
	IsFavorite bool               `json:"isFavorite"`
	Favorites  models.FavoriteSet `json:"favorites"`
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"listings": s.catalog.Size(),
	}
	if at := s.catalog.LoadedAt(); !at.IsZero() {
		body["loadedAt"] = at
	}
	c.JSON(http.StatusOK, body)
}

// listings returns the catalog, loading it first if needed. On failure the
// response has been written and ok is false.
func (s *Server) listings(c *gin.Context) ([]*models.Listing, bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.refreshTimeout)
	defer cancel()

	listings, err := s.catalog.Ensure(ctx)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return listings, true
}

// owner reads and validates the favorites owner of the request.
func (s *Server) owner(c *gin.Context) (string, bool) {
	owner := c.GetHeader(ownerHeader)
	if err := services.ValidateOwner(owner); err != nil {
		s.fail(c, err)
		return "", false
	}
	return owner, true
}

// favoriteSet loads the owner's favorites for annotation. Storage errors
// degrade to no favorites rather than failing the read.
func (s *Server) favoriteSet(c *gin.Context, owner string) models.FavoriteSet {
	set, err := s.favorites.Get(c.Request.Context(), owner)
	if err != nil {
		s.logger.Warn("[api] Favorites unavailable for %q: %v", owner, err)
		return models.NewFavoriteSet()
	}
	return set
}

func (s *Server) searchListings(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	listings, ok := s.listings(c)
	if !ok {
		return
	}

	q := parseQuery(c)
	page := services.Search(listings, q, s.pageSize, s.favoriteSet(c, owner))
	s.metrics.SearchResults.Observe(float64(page.TotalCount))

	c.JSON(http.StatusOK, searchResponse{
		Page:   page,
		Window: services.PageWindow(page.CurrentPage, page.TotalPages),
	})
}

// exportListings writes the filtered, sorted results as CSV. all=true
// exports every match instead of the requested page.
func (s *Server) exportListings(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	listings, ok := s.listings(c)
	if !ok {
		return
	}

	q := parseQuery(c)
	pageSize := s.pageSize
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		pageSize = len(listings)
		q.SetPage(1)
	}
	page := services.Search(listings, q, pageSize, s.favoriteSet(c, owner))

	c.Header("Content-Disposition", `attachment; filename="listings.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := storage.NewCSVWriter(c.Writer).WriteListings(page.Items); err != nil {
		s.logger.Error("[api] CSV export failed: %v", err)
	}
}

func (s *Server) suggestListings(c *gin.Context) {
	listings, ok := s.listings(c)
	if !ok {
		return
	}
	limit := 5
	if n, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"items": services.Suggest(listings, c.Query("q"), limit)})
}

func (s *Server) getListing(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	if _, ok := s.listings(c); !ok {
		return
	}

	l, err := s.catalog.Get(models.ListingID(c.Param("id")))
	if err != nil {
		s.fail(c, err)
		return
	}
	annotated := services.Annotate([]*models.Listing{l}, s.favoriteSet(c, owner))
	c.JSON(http.StatusOK, annotated[0])
}

func (s *Server) submitListing(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}

	l, err := s.hosting.Submit(c.Request.Context(), body)
	if err != nil {
		s.metrics.HostSubmissions.WithLabelValues("rejected").Inc()
		s.fail(c, err)
		return
	}
	s.metrics.HostSubmissions.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusCreated, l)
}

func (s *Server) getFavorites(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	if _, ok := s.listings(c); !ok {
		return
	}

	items, err := s.favorites.Listings(c.Request.Context(), owner, s.catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	id := models.ListingID(c.Param("id"))

	set, err := s.favorites.Toggle(c.Request.Context(), owner, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.FavoriteToggles.Inc()
	c.JSON(http.StatusOK, favoriteResponse{ID: id, IsFavorite: set.Contains(id), Favorites: set})
}

func (s *Server) removeFavorite(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	id := models.ListingID(c.Param("id"))

	set, err := s.favorites.Remove(c.Request.Context(), owner, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, favoriteResponse{ID: id, Favorites: set})
}

func (s *Server) clearFavorites(c *gin.Context) {
	owner, ok := s.owner(c)
	if !ok {
		return
	}
	if err := s.favorites.Clear(c.Request.Context(), owner); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getInsights(c *gin.Context) {
	listings, ok := s.listings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.insights.Generate(listings))
}

func (s *Server) refreshCatalog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.refreshTimeout)
	defer cancel()

	err := s.catalog.Refresh(ctx)
	s.metrics.ObserveRefresh(err)
	if err != nil {
		s.logger.Warn("[api] Manual refresh failed: %v", err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "refresh failed", Retryable: true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": s.catalog.Size(), "loadedAt": s.catalog.LoadedAt()})
}

// fail maps service errors onto HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidOwner):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidListing):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrListingNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "listing not found"})
	case errors.Is(err, services.ErrCatalogUnavailable):
		s.logger.Warn("[api] Catalog unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "listings are unavailable right now", Retryable: true})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "request timed out", Retryable: true})
	default:
		s.logger.Error("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: "upstream error", Retryable: true})
	}
}
