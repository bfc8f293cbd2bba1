package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/mgpai22/lingo/internal/errors"
)

// handlePostgreSQLError converts PostgreSQL errors to AppError codes.
func handlePostgreSQLError(err error, operation string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperrors.Wrap(err, apperrors.CodeInternal, operation)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return apperrors.Wrap(err, apperrors.CodeConflict, "resource already exists")

	case "23503": // foreign_key_violation
		if strings.Contains(pgErr.ConstraintName, "video_id") {
			return apperrors.Wrap(err, apperrors.CodeDependency, "referenced video does not exist")
		}
		return apperrors.Wrap(err, apperrors.CodeDependency, "referenced resource does not exist")

	case "23502": // not_null_violation
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "required field is missing")

	case "23514": // check_violation
		if strings.Contains(pgErr.ConstraintName, "status") {
			return apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid video status")
		}
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "data violates check constraint")

	case "42P01": // undefined_table
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: table not found (run lingo migrate)")

	case "08000", "08003", "08006":
		return apperrors.Wrap(err, apperrors.CodeInternal, "database connection error")

	default:
		return apperrors.Wrap(err, apperrors.CodeInternal, operation+" (PostgreSQL code: "+pgErr.Code+")")
	}
}
