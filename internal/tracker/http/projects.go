package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/consultdesk/tracker-backend/internal/auth"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/service"
)

const dateLayout = "2006-01-02"

// projectResp renders dates as calendar days.
type projectResp struct {
	ID                 int64     `json:"id"`
	ClientName         string    `json:"client_name"`
	ClientEmail        string    `json:"client_email"`
	ClientPhone        *string   `json:"client_phone"`
	StartDate          string    `json:"start_date"`
	Deadline           string    `json:"deadline"`
	Status             string    `json:"status"`
	AssignedTo         *string   `json:"assigned_to"`
	ApplicationSeason  *string   `json:"application_season"`
	Notes              *string   `json:"notes"`
	ProjectTypes       []string  `json:"project_types"`
	TargetUniversities []string  `json:"target_universities"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toProjectResp(p *domain.Project) projectResp {
	return projectResp{
		ID:                 p.ID,
		ClientName:         p.ClientName,
		ClientEmail:        p.ClientEmail,
		ClientPhone:        p.ClientPhone,
		StartDate:          p.StartDate.Format(dateLayout),
		Deadline:           p.Deadline.Format(dateLayout),
		Status:             string(p.Status),
		AssignedTo:         p.AssignedTo,
		ApplicationSeason:  p.ApplicationSeason,
		Notes:              p.Notes,
		ProjectTypes:       p.ProjectTypes,
		TargetUniversities: p.TargetUniversities,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

type createProjectReq struct {
	ClientName         string   `json:"client_name"`
	ClientEmail        string   `json:"client_email"`
	ClientPhone        *string  `json:"client_phone,omitempty"`
	StartDate          string   `json:"start_date"`
	Deadline           string   `json:"deadline"`
	Status             string   `json:"status,omitempty"`
	AssignedTo         *string  `json:"assigned_to,omitempty"`
	ApplicationSeason  *string  `json:"application_season,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
	ProjectTypes       []string `json:"project_types,omitempty"`
	TargetUniversities []string `json:"target_universities,omitempty"`
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		h.writeError(c, err)
		return
	}

	p, err := h.projects.Create(c.Request.Context(), auth.ActorFrom(c), domain.ProjectInput{
		ClientName:         req.ClientName,
		ClientEmail:        req.ClientEmail,
		ClientPhone:        req.ClientPhone,
		StartDate:          start,
		Deadline:           deadline,
		Status:             domain.Status(strings.TrimSpace(req.Status)),
		AssignedTo:         req.AssignedTo,
		ApplicationSeason:  req.ApplicationSeason,
		Notes:              req.Notes,
		ProjectTypes:       req.ProjectTypes,
		TargetUniversities: req.TargetUniversities,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": toProjectResp(p)})
}

func (h *Handler) listProjects(c *gin.Context) {
	var f service.ProjectFilter
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status := domain.Status(s)
		f.Status = &status
	}

	items, err := h.projects.List(c.Request.Context(), auth.ActorFrom(c), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]projectResp, 0, len(items))
	for i := range items {
		out = append(out, toProjectResp(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": out})
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), auth.ActorFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": toProjectResp(p)})
}

// nullable tells an absent key apart from an explicit null.
type nullable struct {
	Set   bool
	Value *string
}

func (n *nullable) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type updateProjectReq struct {
	ClientName         *string  `json:"client_name,omitempty"`
	ClientEmail        *string  `json:"client_email,omitempty"`
	ClientPhone        *string  `json:"client_phone,omitempty"`
	StartDate          *string  `json:"start_date,omitempty"`
	Deadline           *string  `json:"deadline,omitempty"`
	Status             *string  `json:"status,omitempty"`
	AssignedTo         nullable `json:"assigned_to"`
	ApplicationSeason  *string  `json:"application_season,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
	ProjectTypes       []string `json:"project_types,omitempty"`
	TargetUniversities []string `json:"target_universities,omitempty"`
}

func (h *Handler) updateProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	patch := domain.ProjectPatch{
		ClientName:         req.ClientName,
		ClientEmail:        req.ClientEmail,
		ClientPhone:        req.ClientPhone,
		ApplicationSeason:  req.ApplicationSeason,
		Notes:              req.Notes,
		ProjectTypes:       req.ProjectTypes,
		TargetUniversities: req.TargetUniversities,
	}
	if req.Status != nil {
		status := domain.Status(strings.TrimSpace(*req.Status))
		patch.Status = &status
	}
	if req.AssignedTo.Set {
		if req.AssignedTo.Value == nil {
			patch.Unassign = true
		} else {
			patch.AssignedTo = req.AssignedTo.Value
		}
	}
	var err error
	if req.StartDate != nil {
		if patch.StartDate, err = parseDate("start_date", *req.StartDate); err != nil {
			h.writeError(c, err)
			return
		}
	}
	if req.Deadline != nil {
		if patch.Deadline, err = parseDate("deadline", *req.Deadline); err != nil {
			h.writeError(c, err)
			return
		}
	}

	p, err := h.projects.Update(c.Request.Context(), auth.ActorFrom(c), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": toProjectResp(p)})
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), auth.ActorFrom(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) projectStats(c *gin.Context) {
	stats, err := h.stats.ForActor(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": stats})
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. An empty value
// yields nil so the service reports the field as missing.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &domain.ValidationError{Field: field, Reason: "must be a date (YYYY-MM-DD)"}
}
