package geo

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clinreport/portal-api/internal/model"
	"github.com/clinreport/portal-api/pkg/httputil"
)

const citiesCacheKey = "geo:cities"

// RemoteAPI is the slice of the remote client this handler consumes.
type RemoteAPI interface {
	ListCities(ctx context.Context) ([]model.City, error)
}

// Handler proxies geography lookups. Reference data is the one thing this
// tier may cache; identity is never cached anywhere.
type Handler struct {
	remote RemoteAPI
	cache  *gocache.Cache
}

func NewHandler(remote RemoteAPI, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Handler{
		remote: remote,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	geo := r.Group("/geo")
	{
		geo.GET("/cities", h.listCities)
	}
}

func (h *Handler) listCities(c *gin.Context) {
	if cached, found := h.cache.Get(citiesCacheKey); found {
		httputil.RespondWithSuccess(c, cached)
		return
	}

	cities, err := h.remote.ListCities(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.cache.SetDefault(citiesCacheKey, cities)
	httputil.RespondWithSuccess(c, cities)
}
