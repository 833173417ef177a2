package policy

import (
	"fmt"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

// Scope is the Project/read rule in data form: either every project, or only
// the projects assigned to ActorID. Single-row checks, listings and status
// aggregation all go through it.
type Scope struct {
	ActorID string
	All     bool
}

// ScopeFor returns the project visibility of actor. An unauthenticated actor
// sees nothing.
func ScopeFor(actor domain.Actor) Scope {
	if !actor.Authenticated() {
		return Scope{}
	}
	return Scope{ActorID: actor.ID, All: actor.IsManager()}
}

// NewScope builds the scope for an actor known only by id and manager flag.
func NewScope(actorID string, isManager bool) Scope {
	return Scope{ActorID: actorID, All: isManager}
}

func (s Scope) Includes(p *domain.Project) bool {
	if p == nil {
		return false
	}
	return s.All || p.IsAssignedTo(s.ActorID)
}

// Filter keeps the projects included in the scope, preserving order.
func (s Scope) Filter(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for i := range projects {
		if s.Includes(&projects[i]) {
			out = append(out, projects[i])
		}
	}
	return out
}

// SQLPredicate renders Includes as a boolean SQL expression over the given
// assignee column, using positional parameters starting at $firstArg.
func (s Scope) SQLPredicate(assigneeColumn string, firstArg int) (string, []any) {
	clause := fmt.Sprintf("($%d::boolean or %s = $%d)", firstArg, assigneeColumn, firstArg+1)
	return clause, []any{s.All, s.ActorID}
}
