package models

import "time"

// Transaction is an ingested sale, keyed by the upstream transaction id.
// Rows are immutable after insert; re-ingestion of the same external id is a no-op.
type Transaction struct {
	ID            int64     `json:"id"`
	ExternalID    string    `json:"external_id"`
	ProductName   string    `json:"product_name"`
	BuyerName     string    `json:"buyer_name"`
	BuyerPhone    string    `json:"buyer_phone"`
	BuyerEmail    string    `json:"buyer_email"`
	Amount        float64   `json:"amount"`
	ApprovedAt    time.Time `json:"approved_at"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
}

// AdjustedTransaction is derived 1:1 from a Transaction with the product name
// replaced by its canonical form.
type AdjustedTransaction struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	ProductName string    `json:"product_name"`
	BuyerName   string    `json:"buyer_name"`
	BuyerEmail  string    `json:"buyer_email"`
	Amount      float64   `json:"amount"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// PaymentMethod describes an upstream payment method code.
type PaymentMethod struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Mentor is the person responsible for one or more products.
type Mentor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product links a canonical product name to its mentor.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MentorID   int64  `json:"mentor_id"`
	MentorName string `json:"mentor_name,omitempty"`
}

// SyncRun records one sync invocation for diagnostics.
type SyncRun struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Fetched    int        `json:"fetched"`
	Inserted   int        `json:"inserted"`
	Adjusted   int        `json:"adjusted"`
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ReportRow is one adjusted transaction as rendered in the report listing.
type ReportRow struct {
	ExternalID               string    `json:"external_id"`
	ProductName              string    `json:"product_name"`
	MentorName               string    `json:"mentor_name,omitempty"`
	BuyerName                string    `json:"buyer_name"`
	BuyerEmail               string    `json:"buyer_email"`
	Amount                   float64   `json:"amount"`
	AmountFormatted          string    `json:"amount_formatted"`
	PaymentMethod            string    `json:"payment_method,omitempty"`
	PaymentMethodDescription string    `json:"payment_method_description,omitempty"`
	ApprovedAt               time.Time `json:"approved_at"`
}

// ProductTotal aggregates count and summed amount for one canonical product
// across the entire filtered set.
type ProductTotal struct {
	ProductName     string  `json:"product_name"`
	MentorName      string  `json:"mentor_name,omitempty"`
	Quantity        int     `json:"quantity"`
	Amount          float64 `json:"amount"`
	AmountFormatted string  `json:"amount_formatted"`
}

// ReportResult is the full reporting payload: a paginated row listing plus
// totals computed over the whole filtered set.
type ReportResult struct {
	Rows                 []ReportRow    `json:"rows"`
	Page                 int            `json:"page"`
	PageSize             int            `json:"page_size"`
	TotalPages           int            `json:"total_pages"`
	ProductTotals        []ProductTotal `json:"product_totals"`
	TotalCount           int            `json:"total_count"`
	TotalAmount          float64        `json:"total_amount"`
	TotalAmountFormatted string         `json:"total_amount_formatted"`
}
