package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/consultdesk/tracker-backend/internal/auth"
)

type createActivityReq struct {
	Description string `json:"description"`
}

func (h *Handler) createActivity(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req createActivityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	a, err := h.activities.Create(c.Request.Context(), auth.ActorFrom(c), projectID, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "activity": a})
}

func (h *Handler) listActivities(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.activities.ListForProject(c.Request.Context(), auth.ActorFrom(c), projectID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "activities": items})
}

func (h *Handler) getActivity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.activities.Get(c.Request.Context(), auth.ActorFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "activity": a})
}
