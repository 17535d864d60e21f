package models

import "time"

// Transfer is the processor-facing leg of a payment, tied 1:1 to a
// Transaction through Transaction.TransferID. ExternalID is assigned once,
// when the transfer is submitted to the payment processor, and never changes
// afterwards. Status always mirrors the owning transaction's status.
type Transfer struct {
	ID             int64     `json:"id"`
	AdminID        int64     `json:"admin_id"`
	SourceURI      string    `json:"source_uri"`
	DestinationURI string    `json:"destination_uri"`
	Value          float64   `json:"value"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	ExternalID     *string   `json:"external_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
