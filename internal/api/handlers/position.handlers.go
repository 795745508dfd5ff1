package routes

import (
	"net/http"
	"time"

	"geoclaim/internal/model"
	"geoclaim/internal/service/proximity"
	"geoclaim/internal/service/search"

	"github.com/gin-gonic/gin"
)

type positionRequest struct {
	Latitude  *float64  `json:"latitude" binding:"required"`
	Longitude *float64  `json:"longitude" binding:"required"`
	AccuracyM float64   `json:"accuracy_m" binding:"gte=0"`
	Timestamp time.Time `json:"timestamp"`
}

type positionHandlers struct {
	tracker *proximity.Tracker
	engine  *proximity.Engine
}

// SetupPositionHandlers registers the location provider endpoints
func SetupPositionHandlers(router *gin.RouterGroup, tracker *proximity.Tracker, engine *proximity.Engine) {
	h := &positionHandlers{tracker: tracker, engine: engine}

	router.POST("/users/:user/position", h.update)
	router.DELETE("/users/:user/position", h.clear)
	router.GET("/users/:user/nearby", h.nearby)
}

// update stores a fix and answers with the items now in range.
func (h *positionHandlers) update(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	user := c.Param("user")
	accepted, err := h.tracker.Update(user, model.UserPosition{
		Point:     model.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude},
		AccuracyM: req.AccuracyM,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		fail(c, err)
		return
	}

	nearby, err := h.engine.Nearby(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accepted": accepted,
		"nearby":   nearby,
	})
}

// clear drops the user's fix, e.g. after the client lost location permission.
func (h *positionHandlers) clear(c *gin.Context) {
	h.tracker.Forget(c.Param("user"))
	c.Status(http.StatusNoContent)
}

// nearby lists every item with its distance, plus the claimable subset.
func (h *positionHandlers) nearby(c *gin.Context) {
	ctx := c.Request.Context()
	user := c.Param("user")

	pos, all, err := h.engine.Distances(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}
	claimable, err := h.engine.Nearby(ctx, user)
	if err != nil {
		fail(c, err)
		return
	}

	all = search.FilterBy(all, c.Query("category"), func(n proximity.NearbyItem) string { return string(n.Item.Rarity) })
	all = search.Sort(all, search.ParseSortKey(c.Query("sort")))

	c.JSON(http.StatusOK, gin.H{
		"position":  pos,
		"nearby":    claimable,
		"distances": all,
	})
}
