package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
)

// FindUserByEmail retrieves a user by email within a tenant
func (r *Repository) FindUserByEmail(ctx context.Context, tenantID int64, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, tenant_id, email, password_hash, created_at
		FROM marketplace.users
		WHERE tenant_id = $1 AND email = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, email).
		Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetProfile retrieves a profile by id within a tenant
func (r *Repository) GetProfile(ctx context.Context, tenantID, id int64) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, user_id, tenant_id, email, first_name, last_name, payments_uri
		FROM marketplace.profiles
		WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).
		Scan(&profile.ID, &profile.UserID, &profile.TenantID, &profile.Email,
			&profile.FirstName, &profile.LastName, &profile.PaymentsURI)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("profile %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByUserID retrieves a user's profile within a tenant
func (r *Repository) GetProfileByUserID(ctx context.Context, tenantID, userID int64) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, user_id, tenant_id, email, first_name, last_name, payments_uri
		FROM marketplace.profiles
		WHERE tenant_id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, userID).
		Scan(&profile.ID, &profile.UserID, &profile.TenantID, &profile.Email,
			&profile.FirstName, &profile.LastName, &profile.PaymentsURI)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("profile for user %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by user: %w", err)
	}
	return profile, nil
}

// GetJob retrieves a job by id within a tenant
func (r *Repository) GetJob(ctx context.Context, tenantID, id int64) (*models.Job, error) {
	job := &models.Job{}
	query := `
		SELECT id, tenant_id, name, description, value
		FROM marketplace.jobs
		WHERE tenant_id = $1 AND id = $2`
	err := r.db.QueryRowContext(ctx, query, tenantID, id).
		Scan(&job.ID, &job.TenantID, &job.Name, &job.Description, &job.Value)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("job %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// GetTenant retrieves a tenant by id
func (r *Repository) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, funding_uri
		FROM marketplace.tenants
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&tenant.ID, &tenant.Name, &tenant.FundingURI)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("tenant %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}
