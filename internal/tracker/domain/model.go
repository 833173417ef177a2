package domain

import "time"

type Role string

const (
	RoleManager    Role = "manager"
	RoleConsultant Role = "consultant"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleConsultant
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusUrgent    Status = "urgent"
	StatusCompleted Status = "completed"
)

// Statuses lists every project status in display order.
var Statuses = []Status{StatusPending, StatusActive, StatusUrgent, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusUrgent, StatusCompleted:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation, resolved from its Profile.
// The zero Actor is unauthenticated.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Authenticated() bool { return a.ID != "" }

func (a Actor) IsManager() bool { return a.ID != "" && a.Role == RoleManager }

// ActorFromProfile builds the actor for the profile's owner.
func ActorFromProfile(p *Profile) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{ID: p.ID, Role: p.Role}
}

// Identity is a verified subject known to the identity registry.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the application-side record for one identity.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is one unit of client work.
type Project struct {
	ID                 int64     `json:"id"`
	ClientName         string    `json:"client_name"`
	ClientEmail        string    `json:"client_email"`
	ClientPhone        *string   `json:"client_phone,omitempty"`
	StartDate          time.Time `json:"start_date"`
	Deadline           time.Time `json:"deadline"`
	Status             Status    `json:"status"`
	AssignedTo         *string   `json:"assigned_to,omitempty"`
	ApplicationSeason  *string   `json:"application_season,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
	ProjectTypes       []string  `json:"project_types"`
	TargetUniversities []string  `json:"target_universities"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsAssignedTo reports whether the project is assigned to the given profile id.
func (p *Project) IsAssignedTo(profileID string) bool {
	return p != nil && p.AssignedTo != nil && profileID != "" && *p.AssignedTo == profileID
}

// Clone returns a deep copy so stores can hand out rows without sharing slices.
func (p Project) Clone() Project {
	cp := p
	cp.ClientPhone = cloneString(p.ClientPhone)
	cp.AssignedTo = cloneString(p.AssignedTo)
	cp.ApplicationSeason = cloneString(p.ApplicationSeason)
	cp.Notes = cloneString(p.Notes)
	cp.ProjectTypes = append([]string{}, p.ProjectTypes...)
	cp.TargetUniversities = append([]string{}, p.TargetUniversities...)
	return cp
}

// Activity is an append-only log entry on a project.
type Activity struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectStats holds status counts over the projects visible to one scope.
type ProjectStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Urgent    int `json:"urgent"`
}

// StatsFromCounts folds per-status counts into ProjectStats. Total includes
// every row, whatever its status.
func StatsFromCounts(counts map[Status]int) ProjectStats {
	var s ProjectStats
	for status, n := range counts {
		s.Total += n
		switch status {
		case StatusActive:
			s.Active = n
		case StatusPending:
			s.Pending = n
		case StatusCompleted:
			s.Completed = n
		case StatusUrgent:
			s.Urgent = n
		}
	}
	return s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
