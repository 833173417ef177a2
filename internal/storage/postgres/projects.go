package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

const selectProjects = `
SELECT id, client_name, client_email, client_phone, start_date, deadline, status,
       assigned_to, application_season, notes, project_types, target_universities,
       created_at, updated_at
FROM projects
`

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var status string
	var phone, assignedTo, season, notes sql.NullString
	var typesJSON, universitiesJSON []byte

	err := row.Scan(
		&p.ID,
		&p.ClientName,
		&p.ClientEmail,
		&phone,
		&p.StartDate,
		&p.Deadline,
		&status,
		&assignedTo,
		&season,
		&notes,
		&typesJSON,
		&universitiesJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.Status(status)
	p.ClientPhone = nullString(phone)
	p.AssignedTo = nullString(assignedTo)
	p.ApplicationSeason = nullString(season)
	p.Notes = nullString(notes)
	p.ProjectTypes = decodeSet(typesJSON)
	p.TargetUniversities = decodeSet(universitiesJSON)
	return &p, nil
}

func (t *tx) InsertProject(ctx context.Context, project *domain.Project) error {
	const q = `
INSERT INTO projects (
  client_name, client_email, client_phone, start_date, deadline, status,
  assigned_to, application_season, notes, project_types, target_universities,
  created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12, $13)
RETURNING id
`
	err := t.tx.QueryRowContext(ctx, q,
		project.ClientName,
		project.ClientEmail,
		project.ClientPhone,
		project.StartDate,
		project.Deadline,
		string(project.Status),
		project.AssignedTo,
		project.ApplicationSeason,
		project.Notes,
		encodeSet(project.ProjectTypes),
		encodeSet(project.TargetUniversities),
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		return fmt.Errorf("insert project: %w", mapError(err))
	}
	return nil
}

func (t *tx) GetProject(ctx context.Context, id int64, forUpdate bool) (*domain.Project, error) {
	q := selectProjects + "WHERE id = $1"
	if forUpdate {
		q += " FOR UPDATE"
	}
	p, err := scanProject(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, mapError(err))
	}
	return p, nil
}

func (t *tx) ListProjects(ctx context.Context, lq repository.ProjectQuery) ([]domain.Project, error) {
	clause, args := lq.Scope.SQLPredicate("assigned_to", 1)
	q := selectProjects + "WHERE " + clause
	if lq.Status != nil {
		args = append(args, string(*lq.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", mapError(err))
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return out, nil
}

// UpdateProject writes every mutable column. updated_at never moves
// backwards, even when concurrent writers race with skewed clocks.
func (t *tx) UpdateProject(ctx context.Context, project *domain.Project) error {
	const q = `
UPDATE projects
SET client_name = $2,
    client_email = $3,
    client_phone = $4,
    start_date = $5,
    deadline = $6,
    status = $7,
    assigned_to = $8,
    application_season = $9,
    notes = $10,
    project_types = $11::jsonb,
    target_universities = $12::jsonb,
    updated_at = greatest($13::timestamptz, updated_at)
WHERE id = $1
RETURNING created_at, updated_at
`
	var createdAt, updatedAt time.Time
	err := t.tx.QueryRowContext(ctx, q,
		project.ID,
		project.ClientName,
		project.ClientEmail,
		project.ClientPhone,
		project.StartDate,
		project.Deadline,
		string(project.Status),
		project.AssignedTo,
		project.ApplicationSeason,
		project.Notes,
		encodeSet(project.ProjectTypes),
		encodeSet(project.TargetUniversities),
		project.UpdatedAt,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("update project %d: %w", project.ID, mapError(err))
	}
	project.CreatedAt = createdAt
	project.UpdatedAt = updatedAt
	return nil
}

// DeleteProject relies on activities.project_id being ON DELETE CASCADE.
func (t *tx) DeleteProject(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, mapError(err))
	}
	return expectOne(res, "project", id)
}

// CountProjectsByStatus is a single statement, so all counts share one
// snapshot even outside View.
func (t *tx) CountProjectsByStatus(ctx context.Context, scope policy.Scope) (map[domain.Status]int, error) {
	clause, args := scope.SQLPredicate("assigned_to", 1)
	q := "SELECT status, count(*) FROM projects WHERE " + clause + " GROUP BY status"

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", mapError(err))
	}
	defer rows.Close()

	counts := make(map[domain.Status]int, len(domain.Statuses))
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan project count: %w", err)
		}
		counts[domain.Status(status)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project counts: %w", err)
	}
	return counts, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func encodeSet(values []string) string {
	b, err := json.Marshal(domain.NormalizeSet(values))
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeSet(raw []byte) []string {
	var values []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return []string{}
		}
	}
	return domain.NormalizeSet(values)
}
