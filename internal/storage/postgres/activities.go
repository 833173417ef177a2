package postgres

import (
	"context"
	"fmt"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

func (t *tx) InsertActivity(ctx context.Context, activity *domain.Activity) error {
	const q = `
INSERT INTO activities (project_id, description, created_at)
VALUES ($1, $2, $3)
RETURNING id
`
	err := t.tx.QueryRowContext(ctx, q, activity.ProjectID, activity.Description, activity.CreatedAt).
		Scan(&activity.ID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", mapError(err))
	}
	return nil
}

func (t *tx) GetActivity(ctx context.Context, id int64) (*domain.Activity, error) {
	const q = `
SELECT id, project_id, description, created_at
FROM activities
WHERE id = $1
`
	var a domain.Activity
	err := t.tx.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.ProjectID, &a.Description, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get activity %d: %w", id, mapError(err))
	}
	return &a, nil
}

func (t *tx) ListActivities(ctx context.Context, projectID int64) ([]domain.Activity, error) {
	const q = `
SELECT id, project_id, description, created_at
FROM activities
WHERE project_id = $1
ORDER BY created_at DESC, id DESC
`
	rows, err := t.tx.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", mapError(err))
	}
	defer rows.Close()

	out := make([]domain.Activity, 0, 16)
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return out, nil
}
