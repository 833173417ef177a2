// Package memstore is an in-process transactional store for development and
// tests. Every write transaction works on a private copy of the state and
// swaps it in on commit, so a failed or cancelled transaction leaves nothing
// behind. Reads share one snapshot under a read lock.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

var errReadOnly = errors.New("memstore: write in read-only transaction")

type state struct {
	identities     map[string]domain.Identity
	profiles       map[string]domain.Profile
	projects       map[int64]domain.Project
	activities     map[int64]domain.Activity
	nextProjectID  int64
	nextActivityID int64
}

func newState() state {
	return state{
		identities: map[string]domain.Identity{},
		profiles:   map[string]domain.Profile{},
		projects:   map[int64]domain.Project{},
		activities: map[int64]domain.Activity{},
	}
}

func (s state) clone() state {
	cp := state{
		identities:     make(map[string]domain.Identity, len(s.identities)),
		profiles:       make(map[string]domain.Profile, len(s.profiles)),
		projects:       make(map[int64]domain.Project, len(s.projects)),
		activities:     make(map[int64]domain.Activity, len(s.activities)),
		nextProjectID:  s.nextProjectID,
		nextActivityID: s.nextActivityID,
	}
	for k, v := range s.identities {
		cp.identities[k] = v
	}
	for k, v := range s.profiles {
		cp.profiles[k] = v
	}
	for k, v := range s.projects {
		cp.projects[k] = v.Clone()
	}
	for k, v := range s.activities {
		cp.activities[k] = v
	}
	return cp
}

type Store struct {
	mu    sync.RWMutex
	state state
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&tx{state: &work, writable: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{state: &s.state})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type tx struct {
	state    *state
	writable bool
}

func (t *tx) write() error {
	if !t.writable {
		return errReadOnly
	}
	return nil
}

func (t *tx) InsertIdentity(_ context.Context, identity *domain.Identity) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.state.identities[identity.ID]; ok {
		return fmt.Errorf("identity %q: %w", identity.ID, domain.ErrConflict)
	}
	t.state.identities[identity.ID] = *identity
	return nil
}

func (t *tx) GetIdentity(_ context.Context, id string) (*domain.Identity, error) {
	identity, ok := t.state.identities[id]
	if !ok {
		return nil, fmt.Errorf("identity %q: %w", id, domain.ErrNotFound)
	}
	return &identity, nil
}

func (t *tx) InsertProfile(_ context.Context, profile *domain.Profile) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.state.profiles[profile.ID]; ok {
		return fmt.Errorf("profile %q: %w", profile.ID, domain.ErrConflict)
	}
	if _, ok := t.state.identities[profile.ID]; !ok {
		return fmt.Errorf("identity %q: %w", profile.ID, domain.ErrNotFound)
	}
	t.state.profiles[profile.ID] = *profile
	return nil
}

func (t *tx) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	profile, ok := t.state.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	return &profile, nil
}

func (t *tx) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	out := make([]domain.Profile, 0, len(t.state.profiles))
	for _, p := range t.state.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) UpdateProfile(_ context.Context, profile *domain.Profile) error {
	if err := t.write(); err != nil {
		return err
	}
	existing, ok := t.state.profiles[profile.ID]
	if !ok {
		return fmt.Errorf("profile %q: %w", profile.ID, domain.ErrNotFound)
	}
	existing.Name = profile.Name
	existing.Email = profile.Email
	t.state.profiles[profile.ID] = existing
	*profile = existing
	return nil
}

func (t *tx) SetProfileRole(_ context.Context, id string, role domain.Role) error {
	if err := t.write(); err != nil {
		return err
	}
	if !role.Valid() {
		return &domain.ValidationError{Field: "role", Reason: "must be manager or consultant"}
	}
	existing, ok := t.state.profiles[id]
	if !ok {
		return fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	existing.Role = role
	t.state.profiles[id] = existing
	return nil
}

func (t *tx) DeleteProfile(_ context.Context, id string, at time.Time) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.state.profiles[id]; !ok {
		return fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	for pid, p := range t.state.projects {
		if !p.IsAssignedTo(id) {
			continue
		}
		p.AssignedTo = nil
		if at.After(p.UpdatedAt) {
			p.UpdatedAt = at
		}
		t.state.projects[pid] = p
	}
	delete(t.state.profiles, id)
	delete(t.state.identities, id)
	return nil
}

func (t *tx) checkAssignee(p *domain.Project) error {
	if p.AssignedTo == nil {
		return nil
	}
	if _, ok := t.state.profiles[*p.AssignedTo]; !ok {
		return fmt.Errorf("assignee %q: %w", *p.AssignedTo, domain.ErrNotFound)
	}
	return nil
}

func (t *tx) InsertProject(_ context.Context, project *domain.Project) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.checkAssignee(project); err != nil {
		return err
	}
	t.state.nextProjectID++
	project.ID = t.state.nextProjectID
	t.state.projects[project.ID] = project.Clone()
	return nil
}

func (t *tx) GetProject(_ context.Context, id int64, _ bool) (*domain.Project, error) {
	p, ok := t.state.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	cp := p.Clone()
	return &cp, nil
}

func (t *tx) ListProjects(_ context.Context, q repository.ProjectQuery) ([]domain.Project, error) {
	rows := make([]domain.Project, 0, len(t.state.projects))
	for _, p := range t.state.projects {
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		rows = append(rows, p.Clone())
	}
	out := q.Scope.Filter(rows)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *tx) UpdateProject(_ context.Context, project *domain.Project) error {
	if err := t.write(); err != nil {
		return err
	}
	existing, ok := t.state.projects[project.ID]
	if !ok {
		return fmt.Errorf("project %d: %w", project.ID, domain.ErrNotFound)
	}
	if err := t.checkAssignee(project); err != nil {
		return err
	}
	next := project.Clone()
	next.CreatedAt = existing.CreatedAt
	if next.UpdatedAt.Before(existing.UpdatedAt) {
		next.UpdatedAt = existing.UpdatedAt
	}
	t.state.projects[project.ID] = next
	project.UpdatedAt = next.UpdatedAt
	project.CreatedAt = next.CreatedAt
	return nil
}

func (t *tx) DeleteProject(_ context.Context, id int64) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.state.projects[id]; !ok {
		return fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	delete(t.state.projects, id)
	for aid, a := range t.state.activities {
		if a.ProjectID == id {
			delete(t.state.activities, aid)
		}
	}
	return nil
}

func (t *tx) CountProjectsByStatus(_ context.Context, scope policy.Scope) (map[domain.Status]int, error) {
	rows := make([]domain.Project, 0, len(t.state.projects))
	for _, p := range t.state.projects {
		rows = append(rows, p)
	}
	counts := make(map[domain.Status]int, len(domain.Statuses))
	for _, p := range scope.Filter(rows) {
		counts[p.Status]++
	}
	return counts, nil
}

func (t *tx) InsertActivity(_ context.Context, activity *domain.Activity) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, ok := t.state.projects[activity.ProjectID]; !ok {
		return fmt.Errorf("project %d: %w", activity.ProjectID, domain.ErrNotFound)
	}
	t.state.nextActivityID++
	activity.ID = t.state.nextActivityID
	t.state.activities[activity.ID] = *activity
	return nil
}

func (t *tx) GetActivity(_ context.Context, id int64) (*domain.Activity, error) {
	a, ok := t.state.activities[id]
	if !ok {
		return nil, fmt.Errorf("activity %d: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (t *tx) ListActivities(_ context.Context, projectID int64) ([]domain.Activity, error) {
	out := make([]domain.Activity, 0)
	for _, a := range t.state.activities {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
