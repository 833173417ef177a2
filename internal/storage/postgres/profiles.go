package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

func (t *tx) InsertIdentity(ctx context.Context, identity *domain.Identity) error {
	const q = `
INSERT INTO identities (id, email, display_name, created_at)
VALUES ($1, $2, $3, $4)
`
	_, err := t.tx.ExecContext(ctx, q, identity.ID, identity.Email, identity.DisplayName, identity.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identity %q: %w", identity.ID, mapError(err))
	}
	return nil
}

func (t *tx) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	const q = `
SELECT id, email, display_name, created_at
FROM identities
WHERE id = $1
`
	var identity domain.Identity
	var displayName sql.NullString
	err := t.tx.QueryRowContext(ctx, q, id).Scan(&identity.ID, &identity.Email, &displayName, &identity.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get identity %q: %w", id, mapError(err))
	}
	if displayName.Valid {
		identity.DisplayName = &displayName.String
	}
	return &identity, nil
}

func (t *tx) InsertProfile(ctx context.Context, profile *domain.Profile) error {
	const q = `
INSERT INTO profiles (id, name, email, role, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := t.tx.ExecContext(ctx, q, profile.ID, profile.Name, profile.Email, string(profile.Role), profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile %q: %w", profile.ID, mapError(err))
	}
	return nil
}

const selectProfiles = `
SELECT id, name, email, role, created_at
FROM profiles
`

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &role, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}

func (t *tx) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := scanProfile(t.tx.QueryRowContext(ctx, selectProfiles+"WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get profile %q: %w", id, mapError(err))
	}
	return p, nil
}

func (t *tx) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := t.tx.QueryContext(ctx, selectProfiles+"ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", mapError(err))
	}
	defer rows.Close()

	out := make([]domain.Profile, 0, 16)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return out, nil
}

func (t *tx) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	const q = `
UPDATE profiles
SET name = $2, email = $3
WHERE id = $1
RETURNING id, name, email, role, created_at
`
	p, err := scanProfile(t.tx.QueryRowContext(ctx, q, profile.ID, profile.Name, profile.Email))
	if err != nil {
		return fmt.Errorf("update profile %q: %w", profile.ID, mapError(err))
	}
	*profile = *p
	return nil
}

func (t *tx) SetProfileRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return &domain.ValidationError{Field: "role", Reason: "must be manager or consultant"}
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE profiles SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("set role %q: %w", id, mapError(err))
	}
	return expectOne(res, "profile", id)
}

// DeleteProfile unassigns the profile's projects itself rather than leaving
// it to ON DELETE SET NULL, so their updated_at moves with the change.
func (t *tx) DeleteProfile(ctx context.Context, id string, at time.Time) error {
	const unassign = `
UPDATE projects
SET assigned_to = NULL,
    updated_at = greatest($2::timestamptz, updated_at)
WHERE assigned_to = $1
`
	if _, err := t.tx.ExecContext(ctx, unassign, id, at); err != nil {
		return fmt.Errorf("unassign projects of %q: %w", id, mapError(err))
	}

	res, err := t.tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile %q: %w", id, mapError(err))
	}
	if err := expectOne(res, "profile", id); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity %q: %w", id, mapError(err))
	}
	return nil
}

func expectOne(res sql.Result, kind string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
