package models

import "time"

// User represents a platform account able to log in.
type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the tenant-scoped identity of a user, carrying the payment
// processor's customer reference for that user.
type Profile struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	TenantID    int64  `json:"tenant_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PaymentsURI string `json:"payments_uri"`
}

// Tenant owns transactions and holds the funding source URI payouts are
// drawn from.
type Tenant struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	FundingURI string `json:"funding_uri"`
}
