package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

const membershipColumns = `id, user_id, organization_id, role, joined_at`

// MembershipStore implements store.MembershipStore using PostgreSQL.
type MembershipStore struct {
	pool *pgxpool.Pool
}

// NewMembershipStore creates a new PostgreSQL-backed membership store.
func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{
		pool: pool,
	}
}

// Create adds an account to an organization.
func (s *MembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO organization_members (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		membership.ID,
		membership.AccountID,
		membership.OrganizationID,
		string(membership.Role),
		membership.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("account_id", membership.AccountID.String()).
		Str("org_id", membership.OrganizationID.String()).
		Str("role", string(membership.Role)).
		Msg("Created membership")

	return nil
}

// Get retrieves the membership of an account in an organization.
func (s *MembershipStore) Get(ctx context.Context, accountID, orgID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM organization_members
		WHERE user_id = $1 AND organization_id = $2
	`

	membership, err := scanMembership(s.pool.QueryRow(ctx, query, accountID, orgID))
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ListByAccount returns every membership held by an account, oldest first.
func (s *MembershipStore) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM organization_members
		WHERE user_id = $1
		ORDER BY joined_at
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return memberships, nil
}

// Delete removes an account from an organization.
func (s *MembershipStore) Delete(ctx context.Context, accountID, orgID uuid.UUID) error {
	result, err := s.pool.Exec(ctx,
		`DELETE FROM organization_members WHERE user_id = $1 AND organization_id = $2`,
		accountID, orgID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrMembershipNotFound
	}

	return nil
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var membership models.Membership
	var role string

	err := row.Scan(
		&membership.ID,
		&membership.AccountID,
		&membership.OrganizationID,
		&role,
		&membership.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	membership.Role = models.Role(role)
	return &membership, nil
}
