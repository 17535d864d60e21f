package models

import "time"

// Funding source account types accepted by the payment processor.
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

// FundingSource is a bank account linked by a contractor (or a tenant) and
// registered with the payment processor. Routing and account numbers are
// write-once: changing bank details means linking a new funding source.
type FundingSource struct {
	ID            int64     `json:"id"`
	ProfileID     int64     `json:"profile_id"`
	TenantID      int64     `json:"tenant_id"`
	RoutingNumber string    `json:"routing_number"`
	AccountNumber string    `json:"-"` // Never serialized
	AccountType   string    `json:"account_type"`
	DisplayName   string    `json:"display_name"`
	IsDefault     bool      `json:"is_default"`
	ExternalURI   string    `json:"external_uri"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
