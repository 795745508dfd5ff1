package routes

import (
	"net/http"

	"geoclaim/internal/service/claim"

	"github.com/gin-gonic/gin"
)

type createClaimRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type codeRequest struct {
	Payload string `json:"payload"`
}

type claimHandlers struct {
	claims *claim.Manager
}

// SetupClaimHandlers registers the claim session endpoints
func SetupClaimHandlers(router *gin.RouterGroup, claims *claim.Manager) {
	h := &claimHandlers{claims: claims}

	router.POST("/users/:user/claims", h.create)
	router.GET("/users/:user/claims", h.listByUser)

	group := router.Group("/claims")
	group.GET("/:id", h.get)
	group.POST("/:id/scan", h.scan)
	group.POST("/:id/code", h.code)
	group.POST("/:id/cancel", h.cancel)
}

// respond re-reads the session so the reply carries derived eligibility.
func (h *claimHandlers) respond(c *gin.Context, status int, id string) {
	view, err := h.claims.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, view)
}

func (h *claimHandlers) create(c *gin.Context) {
	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s, err := h.claims.Create(c.Request.Context(), c.Param("user"), req.ItemID)
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, s.ID)
}

func (h *claimHandlers) listByUser(c *gin.Context) {
	views := h.claims.ListByUser(c.Request.Context(), c.Param("user"))
	c.JSON(http.StatusOK, gin.H{"sessions": views, "count": len(views)})
}

func (h *claimHandlers) get(c *gin.Context) {
	h.respond(c, http.StatusOK, c.Param("id"))
}

func (h *claimHandlers) scan(c *gin.Context) {
	s, err := h.claims.BeginScan(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, s.ID)
}

// code submits the scanned payload. Verification continues in the
// background and the reply is 202 unless ?wait=true, which blocks until
// the session settles or the client goes away.
func (h *claimHandlers) code(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	outcome, err := h.claims.CodeDetected(c.Request.Context(), id, req.Payload)
	if err != nil {
		fail(c, err)
		return
	}

	if c.Query("wait") != "true" {
		h.respond(c, http.StatusAccepted, id)
		return
	}

	select {
	case o, ok := <-outcome:
		if !ok {
			h.respond(c, http.StatusOK, id)
			return
		}
		if o.Err != nil {
			fail(c, o.Err)
			return
		}
		c.JSON(http.StatusOK, claim.View{Session: o.Session})
	case <-c.Request.Context().Done():
		c.Status(http.StatusRequestTimeout)
	}
}

func (h *claimHandlers) cancel(c *gin.Context) {
	if err := h.claims.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
