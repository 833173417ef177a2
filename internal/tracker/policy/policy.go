// Package policy decides whether an actor may perform an operation on a row.
//
// Rules are allow-predicates keyed by resource kind and operation. An
// operation is permitted when any predicate for its key matches; anything
// without a matching predicate is denied. Unauthenticated actors are denied
// everything.
package policy

import "github.com/consultdesk/tracker-backend/internal/tracker/domain"

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type ResourceKind string

const (
	KindProfile  ResourceKind = "profile"
	KindProject  ResourceKind = "project"
	KindActivity ResourceKind = "activity"
)

// ActivityRow pairs an activity with its parent project, which decides
// activity visibility. Activity may be nil for pre-filtering a project's log.
type ActivityRow struct {
	Activity *domain.Activity
	Project  *domain.Project
}

type rule func(actor domain.Actor, resource any) bool

type ruleKey struct {
	kind ResourceKind
	op   Operation
}

var rules = map[ruleKey][]rule{
	{KindProfile, OpRead}:   {anyAuthenticated},
	{KindProfile, OpCreate}: {ownProfile},
	{KindProfile, OpUpdate}: {ownProfile},

	{KindProject, OpRead}:   {projectVisible},
	{KindProject, OpCreate}: {isManager},
	{KindProject, OpUpdate}: {isManager},
	{KindProject, OpDelete}: {isManager},

	{KindActivity, OpRead}:   {parentProjectVisible},
	{KindActivity, OpCreate}: {isManager},
}

// CanPerform reports whether actor may perform op on a resource of the given
// kind. resource is the concrete row (*domain.Profile, *domain.Project or
// ActivityRow) and may be nil for checks that do not depend on a row.
func CanPerform(actor domain.Actor, op Operation, kind ResourceKind, resource any) bool {
	if !actor.Authenticated() {
		return false
	}
	for _, allow := range rules[ruleKey{kind, op}] {
		if allow(actor, resource) {
			return true
		}
	}
	return false
}

// CanReadProject is the Project/read rule for a single row.
func CanReadProject(actor domain.Actor, p *domain.Project) bool {
	return CanPerform(actor, OpRead, KindProject, p)
}

// CanWriteProjects is the role gate shared by project create, update and delete.
func CanWriteProjects(actor domain.Actor) bool {
	return CanPerform(actor, OpUpdate, KindProject, nil)
}

func anyAuthenticated(actor domain.Actor, _ any) bool {
	return actor.Authenticated()
}

func isManager(actor domain.Actor, _ any) bool {
	return actor.IsManager()
}

func ownProfile(actor domain.Actor, resource any) bool {
	p, ok := resource.(*domain.Profile)
	return ok && p != nil && p.ID == actor.ID
}

func projectVisible(actor domain.Actor, resource any) bool {
	if actor.IsManager() {
		return true
	}
	p, ok := resource.(*domain.Project)
	return ok && ScopeFor(actor).Includes(p)
}

func parentProjectVisible(actor domain.Actor, resource any) bool {
	row, ok := resource.(ActivityRow)
	if !ok || row.Project == nil {
		return false
	}
	if row.Activity != nil && row.Activity.ProjectID != row.Project.ID {
		return false
	}
	return projectVisible(actor, row.Project)
}
