package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/multicloud/internal/store"
)

// uniqueConstraints maps unique constraint names from the migrations to sentinel errors.
var uniqueConstraints = map[string]error{
	"users_email_key":                   store.ErrEmailTaken,
	"users_cpf_key":                     store.ErrCPFTaken,
	"organizations_name_key":            store.ErrOrganizationNameTaken,
	"organizations_cnpj_key":            store.ErrCNPJTaken,
	"organization_members_user_org_key": store.ErrMembershipExists,
	"cloud_accounts_org_alias_key":      store.ErrCloudAccountAliasTaken,
}

// mapPostgresError maps PostgreSQL-specific errors to sentinel errors.
// Returns the original error if it's not a PostgreSQL error or doesn't match known patterns.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", uniqueViolation(pgErr), pgErr.ConstraintName)

	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %s", store.ErrInvalidReference, pgErr.ConstraintName)

	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.StringDataRightTruncationDataException:
		return fmt.Errorf("%w: %s", store.ErrConstraint, pgErr.ConstraintName)

	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("transaction conflict (retryable): %w", err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s, hint: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, pgErr.Hint, err)
	}
}

// uniqueViolation resolves the sentinel for a unique violation, first by constraint
// name and then by the column named in the error detail.
func uniqueViolation(pgErr *pgconn.PgError) error {
	if sentinel, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
		return sentinel
	}

	switch {
	case strings.Contains(pgErr.Detail, "(email)"):
		return store.ErrEmailTaken
	case strings.Contains(pgErr.Detail, "(cpf)"):
		return store.ErrCPFTaken
	case strings.Contains(pgErr.Detail, "(cnpj)"):
		return store.ErrCNPJTaken
	}

	return store.ErrConflict
}
