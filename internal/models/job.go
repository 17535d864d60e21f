package models

// Job is a unit of billable work. Value is the price of one unit; a
// transaction's value is its quantity multiplied by this price.
type Job struct {
	ID          int64   `json:"id"`
	TenantID    int64   `json:"tenant_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}
