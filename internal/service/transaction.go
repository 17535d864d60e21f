package service

import (
	"context"
	"time"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/models"
)

// Processor status vocabulary, mapped onto the local status space by
// mapProcessorStatus. Anything else passes through verbatim.
const (
	processorCanceled  = "canceled"
	processorFailed    = "failed"
	processorReclaimed = "reclaimed"
	processorCompleted = "completed"
)

func mapProcessorStatus(status string) string {
	switch status {
	case processorCanceled:
		return models.StatusCanceled
	case processorFailed:
		return models.StatusFailed
	case processorReclaimed:
		return models.StatusReclaimed
	case processorCompleted:
		return models.StatusProcessed
	}
	// Unknown statuses are stored verbatim rather than rejected, so the
	// ledger never throws away information it cannot yet interpret.
	return status
}

// CreateTransaction records an owed payment for completed work, in status new.
func (s *Service) CreateTransaction(ctx context.Context, tenantID, userID, jobID int64, quantity float64) (*models.Transaction, error) {
	if quantity <= 0 {
		return nil, errs.Validationf("quantity must be positive")
	}
	job, err := s.repo.GetJob(ctx, tenantID, jobID)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, errs.Validationf("job %d not found in tenant %d", jobID, tenantID)
		}
		return nil, err
	}

	txn := &models.Transaction{
		TenantID: tenantID,
		UserID:   userID,
		JobID:    jobID,
		Quantity: quantity,
		Status:   models.StatusNew,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	txn.Value = quantity * job.Value
	txn.Job = job

	s.log.Infof("Transaction %d created for user %d, job %d", txn.ID, userID, jobID)
	return txn, nil
}

// PrepareTransfer allocates the transfer for a transaction and advances the
// transaction to processing, atomically. The transaction must still be new
// and the payee must have a bank account on file; nothing is written when
// either precondition fails.
func (s *Service) PrepareTransfer(ctx context.Context, tenantID, transactionID, adminID int64) (*models.Transfer, error) {
	txn, err := s.repo.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusNew {
		return nil, errs.Conflictf("transfer already prepared for transaction %d", transactionID)
	}

	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.FundingURI == "" {
		return nil, errs.Validationf("funding source not configured for tenant %d", tenantID)
	}

	profile, err := s.repo.GetProfileByUserID(ctx, tenantID, txn.UserID)
	if err != nil {
		return nil, err
	}
	destination, err := s.repo.GetDestinationFundingSource(ctx, profile.ID)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, errs.Validationf("bank account not configured for recipient")
		}
		return nil, err
	}

	transfer := &models.Transfer{
		AdminID:        adminID,
		SourceURI:      tenant.FundingURI,
		DestinationURI: destination.ExternalURI,
		Value:          txn.Value,
		Currency:       s.config.Currency,
		Status:         models.StatusProcessing,
	}
	if err := s.repo.PrepareTransferPair(ctx, txn, transfer); err != nil {
		return nil, err
	}

	s.log.Infof("Transfer %d prepared for transaction %d by admin %d", transfer.ID, txn.ID, adminID)
	return transfer, nil
}

// SubmitTransfer sends a prepared transfer to the payment processor and
// records the processor-assigned external id. A processor rejection moves the
// pair to failed before the error is returned, so the ledger never shows
// processing forever after a confirmed rejection. Retrying submission is the
// caller's decision.
func (s *Service) SubmitTransfer(ctx context.Context, tenantID, transactionID int64) error {
	txn, err := s.repo.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return err
	}
	if txn.Status != models.StatusProcessing || txn.TransferID == nil {
		return errs.Conflictf("transaction %d has no transfer awaiting submission", transactionID)
	}
	transfer, err := s.repo.GetTransfer(ctx, *txn.TransferID)
	if err != nil {
		return err
	}
	if transfer.ExternalID != nil {
		return errs.Conflictf("transfer %d was already submitted", transfer.ID)
	}

	if err := s.gateway.Authorize(ctx); err != nil {
		return err
	}
	externalID, err := s.gateway.CreateTransfer(ctx, transfer.SourceURI, transfer.DestinationURI, transfer.Value, transfer.Currency)
	if err != nil {
		if updateErr := s.repo.UpdatePairStatus(ctx, txn.ID, transfer.ID, models.StatusFailed); updateErr != nil {
			s.log.Errorf("Failed to mark transaction %d failed after gateway error: %v", txn.ID, updateErr)
		}
		return err
	}
	if err := s.repo.SetTransferExternalID(ctx, transfer.ID, externalID); err != nil {
		return err
	}
	s.log.Infof("Transfer %d submitted, external id %s", transfer.ID, externalID)

	// The processor reports an initial status right away; fold it in. A
	// failure here is ambiguous (the transfer exists on the processor side),
	// so the pair stays processing and the polling job settles it later.
	details, err := s.gateway.GetTransfer(ctx, externalID)
	if err != nil {
		s.log.Warnf("Could not fetch initial status for transfer %s: %v", externalID, err)
		return nil
	}
	if err := s.ReconcileStatus(ctx, externalID, details.Status); err != nil {
		s.log.Warnf("Could not reconcile initial status for transfer %s: %v", externalID, err)
	}
	return nil
}

// ReconcileStatus folds a processor-reported status into both ledgers. The
// lookup is tenant-agnostic because processor events carry no tenant context.
// Applying the same report twice is a no-op; reports against a pair that
// already reached a terminal status are ignored.
func (s *Service) ReconcileStatus(ctx context.Context, externalID, reportedStatus string) error {
	txn, transfer, err := s.repo.GetByTransferExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	status := mapProcessorStatus(reportedStatus)
	if txn.Status == status && transfer.Status == status {
		return nil
	}
	if models.IsTerminalStatus(txn.Status) {
		s.log.Warnf("Ignoring status %q for transfer %s: transaction %d already %s",
			reportedStatus, externalID, txn.ID, txn.Status)
		return nil
	}

	if err := s.repo.UpdatePairStatus(ctx, txn.ID, transfer.ID, status); err != nil {
		return err
	}
	s.log.Infof("Transaction %d reconciled to %s (reported %q)", txn.ID, status, reportedStatus)

	if models.IsTerminalStatus(status) {
		profile, err := s.repo.GetProfileByUserID(ctx, txn.TenantID, txn.UserID)
		if err != nil {
			s.log.Errorf("Could not resolve payee profile for transaction %d: %v", txn.ID, err)
			return nil
		}
		amount, currency := transfer.Value, transfer.Currency
		s.notifyAsync("transfer status", func() error {
			return s.notifier.SendTransferStatusChanged(profile.Email, profile.FirstName, amount, currency, status)
		})
	}
	return nil
}

// PollInFlightTransfers fetches the processor status of every submitted
// transfer still processing and reconciles each. Per-transfer failures are
// logged and skipped so one bad transfer cannot stall the rest.
func (s *Service) PollInFlightTransfers(ctx context.Context) error {
	externalIDs, err := s.repo.ListInFlightExternalIDs(ctx)
	if err != nil {
		return err
	}
	if len(externalIDs) == 0 {
		return nil
	}
	if err := s.gateway.Authorize(ctx); err != nil {
		return err
	}

	for _, id := range externalIDs {
		details, err := s.gateway.GetTransfer(ctx, id)
		if err != nil {
			s.log.Warnf("Failed to fetch transfer %s during poll: %v", id, err)
			continue
		}
		if err := s.ReconcileStatus(ctx, id, details.Status); err != nil {
			s.log.Warnf("Failed to reconcile transfer %s during poll: %v", id, err)
		}
	}
	return nil
}

// GetTransactionsForUser returns one page of a user's transaction history.
func (s *Service) GetTransactionsForUser(ctx context.Context, tenantID, userID int64, page, limit int, startDate, endDate *time.Time, status string) (*models.PaginatedTransactions, error) {
	if page <= 0 {
		page = 1
	}
	return s.repo.GetTransactionsForUser(ctx, tenantID, userID, page, paginationLimit(limit), startDate, endDate, status)
}

// GetPeriodStats aggregates a tenant's payouts over a time window.
func (s *Service) GetPeriodStats(ctx context.Context, tenantID int64, startDate, endDate time.Time, status string) (*models.PeriodStats, error) {
	return s.repo.GetPeriodStats(ctx, tenantID, startDate, endDate, status)
}

// GetStatistics returns the coarse per-tenant transaction rollup.
func (s *Service) GetStatistics(ctx context.Context, tenantID int64, startDate, endDate time.Time) (*models.TransactionStats, error) {
	total, err := s.repo.CountTransactions(ctx, tenantID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return &models.TransactionStats{Approved: "0", Postponed: "0", Total: total}, nil
}
