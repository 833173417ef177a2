package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/consultdesk/tracker-backend/internal/auth"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

type syncReq struct {
	Email       string  `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

// syncIdentity registers the verified caller on first sign-in, which
// provisions their profile. Later calls return the existing profile.
func (h *Handler) syncIdentity(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	var req syncReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
	}

	email := claims.Email
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}
	displayName := req.DisplayName
	if displayName == nil && claims.Name != "" {
		displayName = &claims.Name
	}

	status := http.StatusCreated
	_, err := h.registry.Register(c.Request.Context(), domain.NewIdentity{
		ID:          claims.UID,
		Email:       email,
		DisplayName: displayName,
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusOK
	case err != nil:
		h.writeError(c, err)
		return
	}

	self := domain.Actor{ID: claims.UID}
	profile, err := h.profiles.Get(c.Request.Context(), self, claims.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, gin.H{"ok": true, "profile": profile})
}

func (h *Handler) listProfiles(c *gin.Context) {
	items, err := h.profiles.List(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profiles": items})
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), auth.ActorFrom(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}

func (h *Handler) getMyProfile(c *gin.Context) {
	actor := auth.ActorFrom(c)
	p, err := h.profiles.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}

type updateProfileReq struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (h *Handler) updateMyProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.profiles.UpdateSelf(c.Request.Context(), auth.ActorFrom(c), domain.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}
