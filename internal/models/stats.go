package models

// Pagination describes one page of a paginated result set.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// PaginatedTransactions is one page of transaction history.
type PaginatedTransactions struct {
	Pagination Pagination    `json:"pagination"`
	Items      []Transaction `json:"items"`
}

// PeriodStats aggregates payouts over a time window: the total value paid and
// the number of distinct payees.
type PeriodStats struct {
	Total float64 `json:"total"`
	Users int64   `json:"users"`
}

// TransactionStats is a coarse per-tenant rollup over a time window.
type TransactionStats struct {
	Approved  string `json:"approved"`
	Postponed string `json:"postponed"`
	Total     int64  `json:"total"`
}
