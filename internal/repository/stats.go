package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/thorplatform/payout-service/internal/models"
)

// GetPeriodStats aggregates a tenant's payouts over a time window: total paid
// value and distinct payee count. Empty windows yield zeroes, not an error.
func (r *Repository) GetPeriodStats(ctx context.Context, tenantID int64, startDate, endDate time.Time, status string) (*models.PeriodStats, error) {
	query := `
		SELECT COALESCE(SUM(t.quantity * j.value), 0),
		       COUNT(DISTINCT t.user_id)
		FROM marketplace.transactions t
		JOIN marketplace.jobs j ON t.job_id = j.id
		WHERE t.tenant_id = $1
		  AND t.created_at BETWEEN $2 AND $3::timestamptz + INTERVAL '1 day'`
	args := []any{tenantID, startDate, endDate}
	if status != "" {
		query += ` AND t.status = $4`
		args = append(args, status)
	}

	stats := &models.PeriodStats{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Users); err != nil {
		return nil, fmt.Errorf("failed to get period stats: %w", err)
	}
	return stats, nil
}

// CountTransactions counts a tenant's transactions in a time window.
func (r *Repository) CountTransactions(ctx context.Context, tenantID int64, startDate, endDate time.Time) (int64, error) {
	var total int64
	query := `
		SELECT COUNT(*)
		FROM marketplace.transactions t
		WHERE t.tenant_id = $1
		  AND t.created_at BETWEEN $2 AND $3::timestamptz + INTERVAL '1 day'`
	if err := r.db.QueryRowContext(ctx, query, tenantID, startDate, endDate).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, nil
}
