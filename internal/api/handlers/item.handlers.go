package routes

import (
	"net/http"
	"strconv"

	"geoclaim/internal/model"
	"geoclaim/internal/service/catalog"
	"geoclaim/internal/service/proximity"
	"geoclaim/internal/service/search"
	"geoclaim/internal/util"

	"github.com/gin-gonic/gin"
)

type itemHandlers struct {
	catalog *catalog.Service
}

// SetupItemHandlers registers the catalog endpoints
func SetupItemHandlers(router *gin.RouterGroup, items *catalog.Service) {
	h := &itemHandlers{catalog: items}

	group := router.Group("/items")
	group.GET("", h.list)
	group.GET("/bounds", h.bounds)
	group.GET("/within", h.within)
	group.GET("/export", h.export)
	group.GET("/:id", h.get)
}

// queryFloats parses the named query parameters, all required.
func queryFloats(c *gin.Context, names ...string) ([]float64, bool) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(c.Query(name), 64)
		if err != nil {
			badRequest(c, "query parameter "+name+" must be a number")
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// list filters by category, searches by text and sorts. When lat and lng
// are given, distances are measured from there.
func (h *itemHandlers) list(c *gin.Context) {
	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	items = search.Search(search.FilterByCategory(items, c.Query("category")), c.Query("q"))

	var results []proximity.NearbyItem
	if c.Query("lat") != "" || c.Query("lng") != "" {
		vals, ok := queryFloats(c, "lat", "lng")
		if !ok {
			return
		}
		from := model.GeoPoint{Latitude: vals[0], Longitude: vals[1]}
		if err := util.ValidatePoint(from); err != nil {
			fail(c, err)
			return
		}
		results = proximity.Distances(from, items)
	} else {
		results = make([]proximity.NearbyItem, len(items))
		for i, item := range items {
			results[i] = proximity.NearbyItem{Item: item}
		}
	}

	results = search.Sort(results, search.ParseSortKey(c.Query("sort")))
	c.JSON(http.StatusOK, gin.H{"items": results, "count": len(results)})
}

func (h *itemHandlers) get(c *gin.Context) {
	item, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *itemHandlers) bounds(c *gin.Context) {
	vals, ok := queryFloats(c, "minLat", "minLng", "maxLat", "maxLng")
	if !ok {
		return
	}
	items, err := h.catalog.InBounds(vals[0], vals[1], vals[2], vals[3])
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *itemHandlers) within(c *gin.Context) {
	vals, ok := queryFloats(c, "lat", "lng", "radius_km")
	if !ok {
		return
	}
	if vals[2] <= 0 {
		badRequest(c, "radius_km must be positive")
		return
	}
	center := model.GeoPoint{Latitude: vals[0], Longitude: vals[1]}
	if err := util.ValidatePoint(center); err != nil {
		fail(c, err)
		return
	}
	items, err := h.catalog.Within(center, vals[2])
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *itemHandlers) export(c *gin.Context) {
	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	data, err := catalog.ExportGeoJSON(items)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
