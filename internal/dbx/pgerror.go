package dbx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation           = "23505"
	pgForeignKeyViolation       = "23503"
	pgCheckViolation            = "23514"
	pgInvalidTextRepresentation = "22P02"
)

// Classify wraps a driver error as "db error: ..." and, for constraint
// violations, maps it onto the common sentinels: unique violations become a
// *common.ConflictError naming the column, foreign key violations and
// malformed identifiers become common.ErrorNotFound, check violations
// become common.ErrorValidation.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("db error: %w", err)
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("db error: %w", &common.ConflictError{Field: constraintField(pgErr.ConstraintName)})
	case pgForeignKeyViolation, pgInvalidTextRepresentation:
		return fmt.Errorf("db error: %w (%s)", common.ErrorNotFound, pgErr.Message)
	case pgCheckViolation:
		return fmt.Errorf("db error: %w", common.NewValidationError(pgErr.ConstraintName))
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

// constraintField extracts the column from names like users_email_key.
func constraintField(name string) string {
	name = strings.TrimSuffix(name, "_key")
	if i := strings.Index(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
