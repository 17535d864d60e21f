package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
)

const transactionColumns = `
	t.id, t.tenant_id, t.user_id, t.admin_id, t.job_id, t.quantity,
	t.quantity * j.value AS value, t.status, t.transfer_id,
	t.created_at, t.updated_at,
	j.id, j.tenant_id, j.name, j.description, j.value`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	txn := &models.Transaction{Job: &models.Job{}}
	var adminID, transferID sql.NullInt64
	err := row.Scan(
		&txn.ID, &txn.TenantID, &txn.UserID, &adminID, &txn.JobID, &txn.Quantity,
		&txn.Value, &txn.Status, &transferID, &txn.CreatedAt, &txn.UpdatedAt,
		&txn.Job.ID, &txn.Job.TenantID, &txn.Job.Name, &txn.Job.Description,
		&txn.Job.Value)
	if err != nil {
		return nil, err
	}
	txn.AdminID = nullInt64(adminID)
	txn.TransferID = nullInt64(transferID)
	return txn, nil
}

// CreateTransaction inserts a new transaction in status new
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO marketplace.transactions
			(tenant_id, user_id, job_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		txn.TenantID, txn.UserID, txn.JobID, txn.Quantity, txn.Status).
		Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by id within a tenant, with its
// value computed from the job's unit price.
func (r *Repository) GetTransaction(ctx context.Context, tenantID, id int64) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM marketplace.transactions t
		JOIN marketplace.jobs j ON t.job_id = j.id
		WHERE t.tenant_id = $1 AND t.id = $2`
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("transaction %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// PrepareTransferPair inserts the transfer row and links it to the
// transaction while flipping the transaction to processing, all in one
// database transaction. The status flip is conditional on the row still being
// new, so two concurrent prepares produce exactly one winner; the loser gets
// a conflict and the whole write rolls back, leaving no orphaned transfer.
func (r *Repository) PrepareTransferPair(ctx context.Context, txn *models.Transaction, transfer *models.Transfer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransfer(ctx, tx, transfer); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE marketplace.transactions
		SET transfer_id = $1, admin_id = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND tenant_id = $5 AND status = $6`,
		transfer.ID, transfer.AdminID, models.StatusProcessing,
		txn.ID, txn.TenantID, models.StatusNew)
	if err != nil {
		return fmt.Errorf("failed to link transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return errs.Conflictf("transfer already prepared for transaction %d", txn.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	txn.TransferID = &transfer.ID
	txn.AdminID = &transfer.AdminID
	txn.Status = models.StatusProcessing
	return nil
}

// UpdatePairStatus sets both the transaction's and the linked transfer's
// status in one database transaction. Both rows move together or not at all.
func (r *Repository) UpdatePairStatus(ctx context.Context, transactionID, transferID int64, status string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE marketplace.transactions
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`, status, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if err := updateTransferStatus(ctx, tx, transferID, status); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// GetByTransferExternalID looks up a transaction/transfer pair by the
// transfer's processor-assigned id. Processor events carry no tenant context,
// so the lookup is tenant-agnostic.
func (r *Repository) GetByTransferExternalID(ctx context.Context, externalID string) (*models.Transaction, *models.Transfer, error) {
	query := `
		SELECT t.id, t.tenant_id, t.user_id, t.admin_id, t.job_id, t.quantity,
		       t.quantity * j.value, t.status, t.transfer_id, t.created_at, t.updated_at,
		       tr.id, tr.admin_id, tr.source_uri, tr.destination_uri, tr.value,
		       tr.currency, tr.status, tr.external_id, tr.created_at, tr.updated_at
		FROM marketplace.transactions t
		JOIN marketplace.jobs j ON t.job_id = j.id
		JOIN marketplace.transfers tr ON t.transfer_id = tr.id
		WHERE tr.external_id = $1`
	txn := &models.Transaction{}
	transfer := &models.Transfer{}
	var adminID, transferID sql.NullInt64
	var trExternalID sql.NullString
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(
		&txn.ID, &txn.TenantID, &txn.UserID, &adminID, &txn.JobID, &txn.Quantity,
		&txn.Value, &txn.Status, &transferID, &txn.CreatedAt, &txn.UpdatedAt,
		&transfer.ID, &transfer.AdminID, &transfer.SourceURI, &transfer.DestinationURI,
		&transfer.Value, &transfer.Currency, &transfer.Status, &trExternalID,
		&transfer.CreatedAt, &transfer.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, errs.NotFoundf("no transfer with external id %s", externalID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find transfer by external id: %w", err)
	}
	txn.AdminID = nullInt64(adminID)
	txn.TransferID = nullInt64(transferID)
	transfer.ExternalID = nullString(trExternalID)
	return txn, transfer, nil
}

// ListInFlightExternalIDs returns the external ids of submitted transfers
// whose transaction has not reached a terminal status. Unrecognized processor
// statuses are stored verbatim and count as in flight. Used by the polling
// job.
func (r *Repository) ListInFlightExternalIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT tr.external_id
		FROM marketplace.transactions t
		JOIN marketplace.transfers tr ON t.transfer_id = tr.id
		WHERE t.status NOT IN ($1, $2, $3, $4) AND tr.external_id IS NOT NULL
		ORDER BY tr.updated_at`
	rows, err := r.db.QueryContext(ctx, query,
		models.StatusProcessed, models.StatusFailed, models.StatusCanceled, models.StatusReclaimed)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight transfers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate in-flight transfers: %w", err)
	}
	return ids, nil
}

// GetTransactionsForUser returns one page of a user's transaction history,
// newest first, optionally filtered by date range and status. The end date is
// inclusive: the window extends one day past it.
func (r *Repository) GetTransactionsForUser(ctx context.Context, tenantID, userID int64, page, limit int, startDate, endDate *time.Time, status string) (*models.PaginatedTransactions, error) {
	where := `WHERE t.tenant_id = $1 AND t.user_id = $2`
	args := []any{tenantID, userID}
	if startDate != nil && endDate != nil {
		where += fmt.Sprintf(` AND t.created_at BETWEEN $%d AND $%d::timestamptz + INTERVAL '1 day'`, len(args)+1, len(args)+2)
		args = append(args, *startDate, *endDate)
	}
	if status != "" {
		where += fmt.Sprintf(` AND t.status = $%d`, len(args)+1)
		args = append(args, status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM marketplace.transactions t ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM marketplace.transactions t
		JOIN marketplace.jobs j ON t.job_id = j.id
		` + where + `
		ORDER BY t.created_at DESC` +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	result := &models.PaginatedTransactions{
		Pagination: models.Pagination{Page: page, Limit: limit, Total: total},
		Items:      []models.Transaction{},
	}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result.Items = append(result.Items, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return result, nil
}
