package domain

import (
	"sort"
	"strings"
	"time"
)

// NewIdentity is the payload of an identity-created event.
type NewIdentity struct {
	ID          string
	Email       string
	DisplayName *string
}

func (n NewIdentity) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return invalid("id", "is required")
	}
	if !looksLikeEmail(n.Email) {
		return invalid("email", "must be an email address")
	}
	return nil
}

// ProfileUpdate is the self-service change set for a profile. Role is absent
// on purpose: role changes go through the administrative path only.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

func (u ProfileUpdate) Apply(p *Profile) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return invalid("name", "must not be blank")
		}
		p.Name = name
	}
	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if !looksLikeEmail(email) {
			return invalid("email", "must be an email address")
		}
		p.Email = email
	}
	return nil
}

// ProjectInput carries the caller-controlled fields of a new project.
type ProjectInput struct {
	ClientName         string
	ClientEmail        string
	ClientPhone        *string
	StartDate          *time.Time
	Deadline           *time.Time
	Status             Status
	AssignedTo         *string
	ApplicationSeason  *string
	Notes              *string
	ProjectTypes       []string
	TargetUniversities []string
}

// Build validates the input and returns the project row to insert. ID and
// timestamps are left for the store and the write hook.
func (in ProjectInput) Build() (Project, error) {
	p := Project{
		ClientName:         strings.TrimSpace(in.ClientName),
		ClientEmail:        strings.TrimSpace(in.ClientEmail),
		ClientPhone:        optional(in.ClientPhone),
		Status:             in.Status,
		AssignedTo:         optional(in.AssignedTo),
		ApplicationSeason:  optional(in.ApplicationSeason),
		Notes:              optional(in.Notes),
		ProjectTypes:       NormalizeSet(in.ProjectTypes),
		TargetUniversities: NormalizeSet(in.TargetUniversities),
	}
	if p.ClientName == "" {
		return Project{}, invalid("client_name", "is required")
	}
	if !looksLikeEmail(p.ClientEmail) {
		return Project{}, invalid("client_email", "must be an email address")
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		return Project{}, invalid("start_date", "is required")
	}
	if in.Deadline == nil || in.Deadline.IsZero() {
		return Project{}, invalid("deadline", "is required")
	}
	p.StartDate = DateOnly(*in.StartDate)
	p.Deadline = DateOnly(*in.Deadline)
	if p.Status == "" {
		p.Status = StatusPending
	}
	if !p.Status.Valid() {
		return Project{}, invalid("status", "must be one of pending, active, urgent, completed")
	}
	return p, nil
}

// ProjectPatch is a partial update. Nil fields are left unchanged; a pointer
// to an empty string clears an optional text field. Unassign clears
// assigned_to and wins over AssignedTo.
type ProjectPatch struct {
	ClientName         *string
	ClientEmail        *string
	ClientPhone        *string
	StartDate          *time.Time
	Deadline           *time.Time
	Status             *Status
	AssignedTo         *string
	Unassign           bool
	ApplicationSeason  *string
	Notes              *string
	ProjectTypes       []string
	TargetUniversities []string
}

func (pp ProjectPatch) Apply(p *Project) error {
	if pp.ClientName != nil {
		name := strings.TrimSpace(*pp.ClientName)
		if name == "" {
			return invalid("client_name", "must not be blank")
		}
		p.ClientName = name
	}
	if pp.ClientEmail != nil {
		email := strings.TrimSpace(*pp.ClientEmail)
		if !looksLikeEmail(email) {
			return invalid("client_email", "must be an email address")
		}
		p.ClientEmail = email
	}
	if pp.ClientPhone != nil {
		p.ClientPhone = optional(pp.ClientPhone)
	}
	if pp.StartDate != nil {
		if pp.StartDate.IsZero() {
			return invalid("start_date", "must not be empty")
		}
		p.StartDate = DateOnly(*pp.StartDate)
	}
	if pp.Deadline != nil {
		if pp.Deadline.IsZero() {
			return invalid("deadline", "must not be empty")
		}
		p.Deadline = DateOnly(*pp.Deadline)
	}
	if pp.Status != nil {
		if !pp.Status.Valid() {
			return invalid("status", "must be one of pending, active, urgent, completed")
		}
		p.Status = *pp.Status
	}
	switch {
	case pp.Unassign:
		p.AssignedTo = nil
	case pp.AssignedTo != nil:
		p.AssignedTo = optional(pp.AssignedTo)
	}
	if pp.ApplicationSeason != nil {
		p.ApplicationSeason = optional(pp.ApplicationSeason)
	}
	if pp.Notes != nil {
		p.Notes = optional(pp.Notes)
	}
	if pp.ProjectTypes != nil {
		p.ProjectTypes = NormalizeSet(pp.ProjectTypes)
	}
	if pp.TargetUniversities != nil {
		p.TargetUniversities = NormalizeSet(pp.TargetUniversities)
	}
	return nil
}

// ValidateActivity checks a new activity before it is written.
func ValidateActivity(a Activity) error {
	if a.ProjectID <= 0 {
		return invalid("project_id", "is required")
	}
	if strings.TrimSpace(a.Description) == "" {
		return invalid("description", "is required")
	}
	return nil
}

// NormalizeSet trims, drops blanks and duplicates, and sorts. The result is
// never nil.
func NormalizeSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DateOnly drops the clock part of t, keeping its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EmailLocalPart returns the part of an address before the last "@".
func EmailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func looksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}
