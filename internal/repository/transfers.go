package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
)

// insertTransfer inserts a transfer row inside the caller-supplied
// transaction scope. Transfers are only ever created as part of the paired
// write that links them to a transaction.
func insertTransfer(ctx context.Context, tx *sql.Tx, t *models.Transfer) error {
	if t.Value <= 0 {
		return errs.Validationf("transfer value must be positive")
	}
	if t.SourceURI == "" || t.DestinationURI == "" {
		return errs.Validationf("transfer source and destination are required")
	}
	query := `
		INSERT INTO marketplace.transfers
			(admin_id, source_uri, destination_uri, value, currency, status,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := tx.QueryRowContext(ctx, query,
		t.AdminID, t.SourceURI, t.DestinationURI, t.Value, t.Currency, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// updateTransferStatus updates a transfer's status inside the caller-supplied
// transaction scope, paired with the owning transaction's update.
func updateTransferStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE marketplace.transfers
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}
	return nil
}

// GetTransfer retrieves a transfer by id
func (r *Repository) GetTransfer(ctx context.Context, id int64) (*models.Transfer, error) {
	t := &models.Transfer{}
	var externalID sql.NullString
	query := `
		SELECT id, admin_id, source_uri, destination_uri, value, currency,
		       status, external_id, created_at, updated_at
		FROM marketplace.transfers
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.AdminID, &t.SourceURI, &t.DestinationURI, &t.Value,
			&t.Currency, &t.Status, &externalID, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("transfer %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	t.ExternalID = nullString(externalID)
	return t, nil
}

// SetTransferExternalID records the processor-assigned external id. The id is
// assigned exactly once: a second attempt finds the guard column already set
// and reports a conflict.
func (r *Repository) SetTransferExternalID(ctx context.Context, transferID int64, externalID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE marketplace.transfers
		SET external_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND external_id IS NULL`, externalID, transferID)
	if err != nil {
		return fmt.Errorf("failed to set transfer external id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return errs.Conflictf("transfer %d was already submitted", transferID)
	}
	return nil
}
