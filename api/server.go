package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stayfinder/services"
	"stayfinder/utils"
)

// ownerHeader identifies the client whose favorites a request reads or
// changes. An absent header means the anonymous default set.
const ownerHeader = "X-Client-ID"

// maxSubmissionBytes caps the body of a host submission.
const maxSubmissionBytes = 1 << 20

// Deps are the services the HTTP layer serves.
type Deps struct {
	Catalog   *services.Catalog
	Favorites *services.FavoriteService
	Hosting   *services.HostService
	Insights  *services.InsightService
	Metrics   *Metrics
	Logger    *utils.Logger

	PageSize       int
	CORSOrigins    []string
	RefreshTimeout time.Duration
}

// Server binds the services to HTTP routes.
type Server struct {
	catalog   *services.Catalog
	favorites *services.FavoriteService
	hosting   *services.HostService
	insights  *services.InsightService
	metrics   *Metrics
	logger    *utils.Logger

	pageSize       int
	corsOrigins    []string
	refreshTimeout time.Duration
}

func NewServer(d Deps) *Server {
	if d.PageSize <= 0 {
		d.PageSize = 6
	}
	if d.RefreshTimeout <= 0 {
		d.RefreshTimeout = 30 * time.Second
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics("stayfinder")
	}
	return &Server{
		catalog:        d.Catalog,
		favorites:      d.Favorites,
		hosting:        d.Hosting,
		insights:       d.Insights,
		metrics:        d.Metrics,
		logger:         d.Logger,
		pageSize:       d.PageSize,
		corsOrigins:    d.CORSOrigins,
		refreshTimeout: d.RefreshTimeout,
	}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", ownerHeader},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.corsOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.corsOrigins
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/listings", s.searchListings)
		api.GET("/listings/export.csv", s.exportListings)
		api.GET("/listings/suggest", s.suggestListings)
		api.GET("/listings/:id", s.getListing)
		api.POST("/listings", s.submitListing)

		api.GET("/favorites", s.getFavorites)
		api.POST("/favorites/:id/toggle", s.toggleFavorite)
		api.DELETE("/favorites/:id", s.removeFavorite)
		api.DELETE("/favorites", s.clearFavorites)

		api.GET("/insights", s.getInsights)
		api.POST("/catalog/refresh", s.refreshCatalog)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start).Round(time.Microsecond)
		switch {
		case status >= 500:
			s.logger.Warn("[api] %s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed)
		default:
			s.logger.Debug("[api] %s %s %d %s", c.Request.Method, c.Request.URL.Path, status, elapsed)
		}
	}
}
