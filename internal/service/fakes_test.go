package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/integrations/processor"
	"github.com/thorplatform/payout-service/internal/models"
)

// fakeStore is an in-memory Store with the same transactional semantics as
// the postgres repository.
type fakeStore struct {
	mu             sync.Mutex
	nextID         int64
	users          map[int64]*models.User
	profiles       map[int64]*models.Profile
	jobs           map[int64]*models.Job
	tenants        map[int64]*models.Tenant
	fundingSources map[int64]*models.FundingSource
	transactions   map[int64]*models.Transaction
	transfers      map[int64]*models.Transfer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:          map[int64]*models.User{},
		profiles:       map[int64]*models.Profile{},
		jobs:           map[int64]*models.Job{},
		tenants:        map[int64]*models.Tenant{},
		fundingSources: map[int64]*models.FundingSource{},
		transactions:   map[int64]*models.Transaction{},
		transfers:      map[int64]*models.Transfer{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn.ID = f.id()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	cp := *txn
	f.transactions[txn.ID] = &cp
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, tenantID, id int64) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[id]
	if !ok || txn.TenantID != tenantID {
		return nil, errs.NotFoundf("transaction %d not found", id)
	}
	cp := *txn
	if job, ok := f.jobs[txn.JobID]; ok {
		jobCp := *job
		cp.Job = &jobCp
		cp.Value = txn.Quantity * job.Value
	}
	return &cp, nil
}

func (f *fakeStore) PrepareTransferPair(_ context.Context, txn *models.Transaction, transfer *models.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if transfer.Value <= 0 {
		return errs.Validationf("transfer value must be positive")
	}
	if transfer.SourceURI == "" || transfer.DestinationURI == "" {
		return errs.Validationf("transfer source and destination are required")
	}
	stored, ok := f.transactions[txn.ID]
	if !ok || stored.Status != models.StatusNew {
		return errs.Conflictf("transfer already prepared for transaction %d", txn.ID)
	}
	transfer.ID = f.id()
	transfer.CreatedAt = time.Now()
	transfer.UpdatedAt = transfer.CreatedAt
	trCp := *transfer
	f.transfers[transfer.ID] = &trCp
	stored.TransferID = &transfer.ID
	stored.AdminID = &transfer.AdminID
	stored.Status = models.StatusProcessing
	txn.TransferID = &transfer.ID
	txn.AdminID = &transfer.AdminID
	txn.Status = models.StatusProcessing
	return nil
}

func (f *fakeStore) UpdatePairStatus(_ context.Context, transactionID, transferID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[transactionID]
	transfer, ok2 := f.transfers[transferID]
	if !ok || !ok2 {
		return fmt.Errorf("pair %d/%d not found", transactionID, transferID)
	}
	txn.Status = status
	transfer.Status = status
	return nil
}

func (f *fakeStore) GetByTransferExternalID(_ context.Context, externalID string) (*models.Transaction, *models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, transfer := range f.transfers {
		if transfer.ExternalID == nil || *transfer.ExternalID != externalID {
			continue
		}
		for _, txn := range f.transactions {
			if txn.TransferID != nil && *txn.TransferID == transfer.ID {
				txnCp, trCp := *txn, *transfer
				return &txnCp, &trCp, nil
			}
		}
	}
	return nil, nil, errs.NotFoundf("no transfer with external id %s", externalID)
}

func (f *fakeStore) ListInFlightExternalIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, txn := range f.transactions {
		if models.IsTerminalStatus(txn.Status) || txn.TransferID == nil {
			continue
		}
		if transfer, ok := f.transfers[*txn.TransferID]; ok && transfer.ExternalID != nil {
			ids = append(ids, *transfer.ExternalID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) GetTransactionsForUser(_ context.Context, tenantID, userID int64, page, limit int, startDate, endDate *time.Time, status string) (*models.PaginatedTransactions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Transaction
	for _, txn := range f.transactions {
		if txn.TenantID != tenantID || txn.UserID != userID {
			continue
		}
		if status != "" && txn.Status != status {
			continue
		}
		if startDate != nil && endDate != nil {
			if txn.CreatedAt.Before(*startDate) || txn.CreatedAt.After(endDate.Add(24*time.Hour)) {
				continue
			}
		}
		cp := *txn
		if job, ok := f.jobs[txn.JobID]; ok {
			cp.Value = txn.Quantity * job.Value
		}
		matched = append(matched, cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	result := &models.PaginatedTransactions{
		Pagination: models.Pagination{Page: page, Limit: limit, Total: int64(len(matched))},
		Items:      []models.Transaction{},
	}
	start := (page - 1) * limit
	for i := start; i < len(matched) && i < start+limit; i++ {
		result.Items = append(result.Items, matched[i])
	}
	return result, nil
}

func (f *fakeStore) GetPeriodStats(_ context.Context, tenantID int64, startDate, endDate time.Time, status string) (*models.PeriodStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.PeriodStats{}
	payees := map[int64]bool{}
	for _, txn := range f.transactions {
		if txn.TenantID != tenantID {
			continue
		}
		if status != "" && txn.Status != status {
			continue
		}
		if txn.CreatedAt.Before(startDate) || txn.CreatedAt.After(endDate.Add(24*time.Hour)) {
			continue
		}
		if job, ok := f.jobs[txn.JobID]; ok {
			stats.Total += txn.Quantity * job.Value
		}
		payees[txn.UserID] = true
	}
	stats.Users = int64(len(payees))
	return stats, nil
}

func (f *fakeStore) CountTransactions(_ context.Context, tenantID int64, startDate, endDate time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, txn := range f.transactions {
		if txn.TenantID != tenantID {
			continue
		}
		if txn.CreatedAt.Before(startDate) || txn.CreatedAt.After(endDate.Add(24*time.Hour)) {
			continue
		}
		total++
	}
	return total, nil
}

func (f *fakeStore) GetTransfer(_ context.Context, id int64) (*models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, errs.NotFoundf("transfer %d not found", id)
	}
	cp := *transfer
	return &cp, nil
}

func (f *fakeStore) SetTransferExternalID(_ context.Context, transferID int64, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	transfer, ok := f.transfers[transferID]
	if !ok {
		return errs.NotFoundf("transfer %d not found", transferID)
	}
	if transfer.ExternalID != nil {
		return errs.Conflictf("transfer %d was already submitted", transferID)
	}
	transfer.ExternalID = &externalID
	return nil
}

func (f *fakeStore) CreateFundingSource(_ context.Context, fs *models.FundingSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fs.ID = f.id()
	fs.CreatedAt = time.Now()
	fs.UpdatedAt = fs.CreatedAt
	cp := *fs
	f.fundingSources[fs.ID] = &cp
	return nil
}

func (f *fakeStore) GetFundingSource(_ context.Context, id int64) (*models.FundingSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fs, ok := f.fundingSources[id]
	if !ok {
		return nil, errs.NotFoundf("funding source %d not found", id)
	}
	cp := *fs
	return &cp, nil
}

func (f *fakeStore) ListFundingSources(_ context.Context, profileID int64) ([]models.FundingSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sources []models.FundingSource
	for _, fs := range f.fundingSources {
		if fs.ProfileID == profileID {
			sources = append(sources, *fs)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID > sources[j].ID })
	return sources, nil
}

func (f *fakeStore) GetDestinationFundingSource(_ context.Context, profileID int64) (*models.FundingSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.FundingSource
	for _, fs := range f.fundingSources {
		if fs.ProfileID != profileID {
			continue
		}
		if best == nil || (fs.IsDefault && !best.IsDefault) ||
			(fs.IsDefault == best.IsDefault && fs.ID > best.ID) {
			best = fs
		}
	}
	if best == nil {
		return nil, errs.NotFoundf("no funding source for profile %d", profileID)
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) SetDefaultFundingSource(_ context.Context, profileID, fundingSourceID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.fundingSources[fundingSourceID]
	if !ok || target.ProfileID != profileID {
		return errs.NotFoundf("funding source %d not found for profile %d", fundingSourceID, profileID)
	}
	for _, fs := range f.fundingSources {
		if fs.ProfileID == profileID {
			fs.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, tenantID int64, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.NotFoundf("user not found")
}

func (f *fakeStore) GetProfile(_ context.Context, tenantID, id int64) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok || p.TenantID != tenantID {
		return nil, errs.NotFoundf("profile %d not found", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProfileByUserID(_ context.Context, tenantID, userID int64) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.TenantID == tenantID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.NotFoundf("profile for user %d not found", userID)
}

func (f *fakeStore) GetJob(_ context.Context, tenantID, id int64) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, errs.NotFoundf("job %d not found", id)
	}
	cp := *job
	return &cp, nil
}

func (f *fakeStore) GetTenant(_ context.Context, id int64) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tenant, ok := f.tenants[id]
	if !ok {
		return nil, errs.NotFoundf("tenant %d not found", id)
	}
	cp := *tenant
	return &cp, nil
}

// fakeGateway simulates the payment processor.
type fakeGateway struct {
	mu                sync.Mutex
	authorizeErr      error
	createSourceErr   error
	createTransferErr error
	getTransferErr    error
	statuses          map[string]string
	nextExternal      int
	createdTransfers  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{statuses: map[string]string{}}
}

func (g *fakeGateway) Authorize(context.Context) error {
	return g.authorizeErr
}

func (g *fakeGateway) CreateFundingSource(_ context.Context, customerURI, routing, account, accountType, name string) (string, error) {
	if g.createSourceErr != nil {
		return "", g.createSourceErr
	}
	return fmt.Sprintf("%s/funding-sources/%s", customerURI, account), nil
}

func (g *fakeGateway) CreateTransfer(_ context.Context, sourceURI, destinationURI string, amount float64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createTransferErr != nil {
		return "", g.createTransferErr
	}
	g.createdTransfers++
	g.nextExternal++
	id := fmt.Sprintf("ext-%d", g.nextExternal)
	g.statuses[id] = "pending"
	return id, nil
}

func (g *fakeGateway) GetTransfer(_ context.Context, externalID string) (*processor.TransferDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getTransferErr != nil {
		return nil, g.getTransferErr
	}
	status, ok := g.statuses[externalID]
	if !ok {
		return nil, errs.Gatewayf("unknown transfer %s", externalID)
	}
	return &processor.TransferDetails{ExternalID: externalID, Status: status}, nil
}

func (g *fakeGateway) setStatus(externalID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[externalID] = status
}

// fakeNotifier records notifications on buffered channels so tests can wait
// for the fire-and-forget goroutine.
type fakeNotifier struct {
	err           error
	sourceAdded   chan string
	statusChanged chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		sourceAdded:   make(chan string, 10),
		statusChanged: make(chan string, 10),
	}
}

func (n *fakeNotifier) SendFundingSourceAdded(to, name, maskedAccount string) error {
	n.sourceAdded <- to
	return n.err
}

func (n *fakeNotifier) SendTransferStatusChanged(to, name string, amount float64, currency, status string) error {
	n.statusChanged <- status
	return n.err
}
