package routes

import (
	"net/http"
	"strconv"

	"geoclaim/internal/service/collection"

	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type profileHandlers struct {
	collection *collection.Service
}

// SetupProfileHandlers registers the collection, profile and leaderboard endpoints
func SetupProfileHandlers(router *gin.RouterGroup, svc *collection.Service) {
	h := &profileHandlers{collection: svc}

	router.GET("/leaderboard", h.leaderboard)
	router.GET("/users/:user/profile", h.profile)
	router.GET("/users/:user/collection", h.items)
}

func (h *profileHandlers) leaderboard(c *gin.Context) {
	limit := int64(defaultLeaderboardLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries, err := h.collection.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *profileHandlers) profile(c *gin.Context) {
	p, err := h.collection.Profile(c.Request.Context(), c.Param("user"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *profileHandlers) items(c *gin.Context) {
	claims, err := h.collection.Collection(c.Request.Context(), c.Param("user"), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
}
