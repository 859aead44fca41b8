// Package pgerr maps Postgres errors onto domain errors.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"offers-marketplace/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidText         = "22P02"
	numericOutOfRange   = "22003"
)

// Translate converts no-rows and malformed ids into ErrNotFound and unique
// violations into ConflictError, with the field looked up by constraint name.
// A foreign key violation on a known constraint and a numeric overflow become
// FieldErrors entries.
// Any other error is returned unchanged.
func Translate(err error, fields map[string]string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return domain.ConflictError{Field: fields[pgErr.ConstraintName]}
	case foreignKeyViolation:
		if f, ok := fields[pgErr.ConstraintName]; ok {
			return domain.Invalid(f, "refers to a record that does not exist")
		}
		return domain.ErrNotFound
	case invalidText:
		return domain.ErrNotFound
	case numericOutOfRange:
		field := pgErr.ColumnName
		if field == "" {
			field = "value"
		}
		return domain.Invalid(field, "numeric value out of range")
	}
	return err
}
