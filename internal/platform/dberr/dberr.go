// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/irongate/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//
//   - pgx.ErrNoRows                → NOT_FOUND for the given entity kind
//   - SQLSTATE 23505 (unique)      → ALREADY_EXISTS
//   - SQLSTATE 23503 (foreign key) → NOT_FOUND (the referenced endpoint is missing)
//   - everything else              → INTERNAL_ERROR
func Wrap(err error, entityKind, identifier string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entityKind, identifier)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperr.AlreadyExists(entityKind + " already exists")
		case pgerrcode.ForeignKeyViolation:
			return apperr.NotFound(entityKind, identifier)
		}
	}

	return apperr.Internal(err)
}
