package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/config"
	"github.com/thorplatform/payout-service/internal/integrations/processor"
	"github.com/thorplatform/payout-service/internal/models"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// TransactionStore persists the platform-facing payment ledger and the
// paired writes that keep it consistent with the transfer ledger.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransaction(ctx context.Context, tenantID, id int64) (*models.Transaction, error)
	PrepareTransferPair(ctx context.Context, txn *models.Transaction, transfer *models.Transfer) error
	UpdatePairStatus(ctx context.Context, transactionID, transferID int64, status string) error
	GetByTransferExternalID(ctx context.Context, externalID string) (*models.Transaction, *models.Transfer, error)
	ListInFlightExternalIDs(ctx context.Context) ([]string, error)
	GetTransactionsForUser(ctx context.Context, tenantID, userID int64, page, limit int, startDate, endDate *time.Time, status string) (*models.PaginatedTransactions, error)
	GetPeriodStats(ctx context.Context, tenantID int64, startDate, endDate time.Time, status string) (*models.PeriodStats, error)
	CountTransactions(ctx context.Context, tenantID int64, startDate, endDate time.Time) (int64, error)
}

// TransferStore persists the processor-facing leg of each payment.
type TransferStore interface {
	GetTransfer(ctx context.Context, id int64) (*models.Transfer, error)
	SetTransferExternalID(ctx context.Context, transferID int64, externalID string) error
}

// FundingSourceStore persists linked bank accounts.
type FundingSourceStore interface {
	CreateFundingSource(ctx context.Context, fs *models.FundingSource) error
	GetFundingSource(ctx context.Context, id int64) (*models.FundingSource, error)
	ListFundingSources(ctx context.Context, profileID int64) ([]models.FundingSource, error)
	GetDestinationFundingSource(ctx context.Context, profileID int64) (*models.FundingSource, error)
	SetDefaultFundingSource(ctx context.Context, profileID, fundingSourceID int64) error
}

// DirectoryStore provides read-only lookups of users, profiles, jobs and
// tenants owned by the rest of the platform.
type DirectoryStore interface {
	FindUserByEmail(ctx context.Context, tenantID int64, email string) (*models.User, error)
	GetProfile(ctx context.Context, tenantID, id int64) (*models.Profile, error)
	GetProfileByUserID(ctx context.Context, tenantID, userID int64) (*models.Profile, error)
	GetJob(ctx context.Context, tenantID, id int64) (*models.Job, error)
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	TransactionStore
	TransferStore
	FundingSourceStore
	DirectoryStore
}

// Gateway is the external payment processor capability.
type Gateway interface {
	Authorize(ctx context.Context) error
	CreateFundingSource(ctx context.Context, customerURI, routing, account, accountType, name string) (string, error)
	CreateTransfer(ctx context.Context, sourceURI, destinationURI string, amount float64, currency string) (string, error)
	GetTransfer(ctx context.Context, externalID string) (*processor.TransferDetails, error)
}

// Notifier sends best-effort user notifications. Failures are logged by the
// service and never propagated to business operations.
type Notifier interface {
	SendFundingSourceAdded(to, name, maskedAccount string) error
	SendTransferStatusChanged(to, name string, amount float64, currency, status string) error
}

// Service handles business logic
type Service struct {
	repo     Store
	gateway  Gateway
	notifier Notifier
	log      *logrus.Logger
	config   *config.Config
}

// NewService initializes a new service
func NewService(repo Store, gateway Gateway, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, gateway: gateway, notifier: notifier, log: log, config: cfg}
}

func paginationLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// notifyAsync runs a notification after the owning operation committed.
// Notification failures never fail the operation; they are logged and
// swallowed.
func (s *Service) notifyAsync(what string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorf("Panic sending %s notification: %v", what, r)
			}
		}()
		if err := fn(); err != nil {
			s.log.Errorf("Failed to send %s notification: %v", what, err)
		}
	}()
}
