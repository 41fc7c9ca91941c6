package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FreelancerProject is a paid project pulled from the Freelancer.com API.
type FreelancerProject struct {
	ProjectID   int64           `json:"project_id"`
	Title       string          `json:"title"`
	Currency    string          `json:"currency"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	CompletedAt time.Time       `json:"completed_at"`
}

// QuickBooksInvoice is an invoice created or fetched in the connected
// QuickBooks company (realm).
type QuickBooksInvoice struct {
	InvoiceID   string          `json:"invoice_id"`
	DocNumber   string          `json:"doc_number"`
	CustomerRef string          `json:"customer_ref"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TxnDate     time.Time       `json:"txn_date"`
}

// EarningsSyncResult summarizes one sync run for a user.
type EarningsSyncResult struct {
	UserID          string          `json:"user_id"`
	ProjectsFetched int             `json:"projects_fetched"`
	InvoicesCreated int             `json:"invoices_created"`
	TotalSynced     decimal.Decimal `json:"total_synced"`
	CompletedAt     time.Time       `json:"completed_at"`
}
