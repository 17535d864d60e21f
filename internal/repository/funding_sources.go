package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
)

// CreateFundingSource inserts a new funding source. Callers must have
// registered the source with the payment processor already; ExternalURI is
// required.
func (r *Repository) CreateFundingSource(ctx context.Context, fs *models.FundingSource) error {
	query := `
		INSERT INTO marketplace.funding_sources
			(profile_id, tenant_id, routing_number, account_number, account_type,
			 display_name, is_default, external_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		fs.ProfileID, fs.TenantID, fs.RoutingNumber, fs.AccountNumber,
		fs.AccountType, fs.DisplayName, fs.IsDefault, fs.ExternalURI).
		Scan(&fs.ID, &fs.CreatedAt, &fs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create funding source: %w", err)
	}
	return nil
}

// GetFundingSource retrieves a funding source by id
func (r *Repository) GetFundingSource(ctx context.Context, id int64) (*models.FundingSource, error) {
	fs := &models.FundingSource{}
	query := `
		SELECT id, profile_id, tenant_id, routing_number, account_number,
		       account_type, display_name, is_default, external_uri,
		       created_at, updated_at
		FROM marketplace.funding_sources
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&fs.ID, &fs.ProfileID, &fs.TenantID, &fs.RoutingNumber,
			&fs.AccountNumber, &fs.AccountType, &fs.DisplayName, &fs.IsDefault,
			&fs.ExternalURI, &fs.CreatedAt, &fs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("funding source %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get funding source: %w", err)
	}
	return fs, nil
}

// ListFundingSources retrieves all funding sources linked to a profile
func (r *Repository) ListFundingSources(ctx context.Context, profileID int64) ([]models.FundingSource, error) {
	query := `
		SELECT id, profile_id, tenant_id, routing_number, account_number,
		       account_type, display_name, is_default, external_uri,
		       created_at, updated_at
		FROM marketplace.funding_sources
		WHERE profile_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding sources: %w", err)
	}
	defer rows.Close()

	var sources []models.FundingSource
	for rows.Next() {
		var fs models.FundingSource
		if err := rows.Scan(&fs.ID, &fs.ProfileID, &fs.TenantID, &fs.RoutingNumber,
			&fs.AccountNumber, &fs.AccountType, &fs.DisplayName, &fs.IsDefault,
			&fs.ExternalURI, &fs.CreatedAt, &fs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan funding source: %w", err)
		}
		sources = append(sources, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate funding sources: %w", err)
	}
	return sources, nil
}

// GetDestinationFundingSource picks the funding source payouts to a profile
// should land on: the default source if one is set, otherwise the most
// recently linked one.
func (r *Repository) GetDestinationFundingSource(ctx context.Context, profileID int64) (*models.FundingSource, error) {
	fs := &models.FundingSource{}
	query := `
		SELECT id, profile_id, tenant_id, routing_number, account_number,
		       account_type, display_name, is_default, external_uri,
		       created_at, updated_at
		FROM marketplace.funding_sources
		WHERE profile_id = $1
		ORDER BY is_default DESC, created_at DESC
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, profileID).
		Scan(&fs.ID, &fs.ProfileID, &fs.TenantID, &fs.RoutingNumber,
			&fs.AccountNumber, &fs.AccountType, &fs.DisplayName, &fs.IsDefault,
			&fs.ExternalURI, &fs.CreatedAt, &fs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("no funding source for profile %d", profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get destination funding source: %w", err)
	}
	return fs, nil
}

// SetDefaultFundingSource makes the given funding source the profile's only
// default. The previous default is cleared in the same transaction, so exactly
// one default per profile is ever observable.
func (r *Repository) SetDefaultFundingSource(ctx context.Context, profileID, fundingSourceID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE marketplace.funding_sources
		SET is_default = false, updated_at = CURRENT_TIMESTAMP
		WHERE profile_id = $1 AND is_default = true`, profileID)
	if err != nil {
		return fmt.Errorf("failed to clear default funding source: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE marketplace.funding_sources
		SET is_default = true, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND profile_id = $2`, fundingSourceID, profileID)
	if err != nil {
		return fmt.Errorf("failed to set default funding source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return errs.NotFoundf("funding source %d not found for profile %d", fundingSourceID, profileID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
