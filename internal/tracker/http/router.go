package http

import "github.com/gin-gonic/gin"

// Register attaches the tracker routes to api. requireIdentity guards every
// route; withActor additionally resolves the caller's profile and is skipped
// for /auth/sync, which is how a profile comes to exist.
func (h *Handler) Register(api *gin.RouterGroup, requireIdentity, withActor gin.HandlerFunc) {
	api.POST("/auth/sync", requireIdentity, h.syncIdentity)

	rg := api.Group("", requireIdentity, withActor)

	rg.GET("/profiles", h.listProfiles)
	rg.GET("/profiles/me", h.getMyProfile)
	rg.PUT("/profiles/me", h.updateMyProfile)
	rg.GET("/profiles/:id", h.getProfile)

	rg.GET("/projects", h.listProjects)
	rg.POST("/projects", h.createProject)
	rg.GET("/projects/stats", h.projectStats)
	rg.GET("/projects/:id", h.getProject)
	rg.PATCH("/projects/:id", h.updateProject)
	rg.DELETE("/projects/:id", h.deleteProject)
	rg.GET("/projects/:id/activities", h.listActivities)
	rg.POST("/projects/:id/activities", h.createActivity)

	rg.GET("/activities/:id", h.getActivity)
}
