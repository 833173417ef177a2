package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// mapError translates driver errors from either pgx or lib/pq into the
// domain error taxonomy. Unknown errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var code, detail string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, detail = pgErr.Code, pgErr.ConstraintName
	case errors.As(err, &pqErr):
		code, detail = string(pqErr.Code), pqErr.Constraint
	default:
		return err
	}

	switch code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w", detail, domain.ErrConflict)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w", detail, domain.ErrNotFound)
	case codeNotNullViolation, codeCheckViolation, codeInvalidText:
		return &domain.ValidationError{Field: detail, Reason: "violates a table constraint"}
	}
	return err
}
