// Package store defines the persistence interfaces and row types of the
// operations backend. The concrete implementation lives in store/bigquery.
package store

import (
	"context"
	"errors"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// ErrNotFound is returned by lookups for ids that do not exist.
var ErrNotFound = errors.New("store: not found")

// Transaction review states. Every AI-extracted transaction lands as
// pending and becomes verified only after a human confirms it.
const (
	TransactionStatusPending  = "pending"
	TransactionStatusVerified = "verified"
)

// Receipt processing states.
const (
	ReceiptStatusPending   = "PENDING"
	ReceiptStatusProcessed = "PROCESSED"
	ReceiptStatusFailed    = "FAILED"
)

// Lead workflow states.
const (
	LeadStatusPendingApproval = "pending_approval"
	LeadStatusApproved        = "approved"
	LeadStatusRejected        = "rejected"
)

// TransactionRow is a finance transaction record in ops.transactions.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id" json:"transaction_id"`
	UserEmail     string `bigquery:"user_email" json:"user_email"`

	Kind       string     `bigquery:"kind" json:"kind"`
	Amount     *big.Rat   `bigquery:"amount" json:"amount"`
	Currency   string     `bigquery:"currency" json:"currency"`
	OccurredOn civil.Date `bigquery:"occurred_on" json:"occurred_on"`

	Counterparty string `bigquery:"counterparty" json:"counterparty,omitempty"`
	Description  string `bigquery:"description" json:"description"`
	Category     string `bigquery:"category" json:"category"`

	Confidence float64 `bigquery:"confidence" json:"confidence"`
	Source     string  `bigquery:"source" json:"source"`
	Status     string  `bigquery:"status" json:"status"`

	ReceiptID bigquery.NullString `bigquery:"receipt_id" json:"receipt_id,omitempty"`

	CreatedTS  time.Time              `bigquery:"created_ts" json:"created_ts"`
	VerifiedTS bigquery.NullTimestamp `bigquery:"verified_ts" json:"verified_ts,omitempty"`
}

// ReceiptRow is an uploaded receipt image in ops.receipts. TransactionID
// is filled by the best-effort back-reference after extraction.
type ReceiptRow struct {
	ReceiptID string `bigquery:"receipt_id" json:"receipt_id"`
	UserEmail string `bigquery:"user_email" json:"user_email"`

	GCSURI   string `bigquery:"gcs_uri" json:"gcs_uri"`
	MimeType string `bigquery:"mime_type" json:"mime_type"`
	Status   string `bigquery:"status" json:"status"`

	TransactionID bigquery.NullString `bigquery:"transaction_id" json:"transaction_id,omitempty"`

	UploadTS    time.Time              `bigquery:"upload_ts" json:"upload_ts"`
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts" json:"processed_ts,omitempty"`
}

// LeadRow is an inbound website lead in ops.leads.
type LeadRow struct {
	LeadID  string `bigquery:"lead_id" json:"lead_id"`
	Name    string `bigquery:"name" json:"name"`
	Email   string `bigquery:"email" json:"email"`
	Company string `bigquery:"company" json:"company,omitempty"`
	Message string `bigquery:"message" json:"message,omitempty"`

	Status string `bigquery:"status" json:"status"`

	Score           bigquery.NullInt64 `bigquery:"score" json:"score,omitempty"`
	Fit             string             `bigquery:"fit" json:"fit,omitempty"`
	AnalysisSummary string             `bigquery:"analysis_summary" json:"analysis_summary,omitempty"`

	CreatedTS time.Time              `bigquery:"created_ts" json:"created_ts"`
	DecidedTS bigquery.NullTimestamp `bigquery:"decided_ts" json:"decided_ts,omitempty"`
}

// OdometerReadingRow is a persisted odometer capture in ops.odometer_readings.
type OdometerReadingRow struct {
	ReadingID string `bigquery:"reading_id" json:"reading_id"`
	UserEmail string `bigquery:"user_email" json:"user_email"`

	KMReading  float64 `bigquery:"km_reading" json:"km_reading"`
	Confidence float64 `bigquery:"confidence" json:"confidence"`
	Notes      string  `bigquery:"notes" json:"notes,omitempty"`

	ImageGCSURI string    `bigquery:"image_gcs_uri" json:"image_gcs_uri,omitempty"`
	CreatedTS   time.Time `bigquery:"created_ts" json:"created_ts"`
}

// TransactionRepository persists extracted transactions.
type TransactionRepository interface {
	// InsertTransaction inserts a single transaction row.
	InsertTransaction(ctx context.Context, row *TransactionRow) error

	// ListTransactionsByStatus lists transactions in the given review state,
	// newest first.
	ListTransactionsByStatus(ctx context.Context, status string, limit int) ([]*TransactionRow, error)
}

// ReceiptRepository persists receipt artifacts.
type ReceiptRepository interface {
	// InsertReceipt inserts a receipt row in the PENDING state.
	InsertReceipt(ctx context.Context, row *ReceiptRow) error

	// GetReceipt retrieves a receipt by id.
	GetReceipt(ctx context.Context, receiptID string) (*ReceiptRow, error)

	// LinkTransaction back-references the transaction created from a receipt
	// and marks the receipt processed.
	LinkTransaction(ctx context.Context, receiptID, transactionID string) error

	// MarkReceiptFailed marks a receipt as failed with an error note.
	MarkReceiptFailed(ctx context.Context, receiptID string, procErr error)
}

// LeadRepository persists leads and their triage outcome.
type LeadRepository interface {
	// GetLead retrieves a lead by id.
	GetLead(ctx context.Context, leadID string) (*LeadRow, error)

	// UpdateLeadAnalysis stores the AI triage result on a lead.
	UpdateLeadAnalysis(ctx context.Context, leadID string, score int, fit, summary string) error

	// UpdateLeadStatus records a human approve/reject decision.
	UpdateLeadStatus(ctx context.Context, leadID, status string) error

	// ListLeads lists all leads, newest first.
	ListLeads(ctx context.Context, limit int) ([]*LeadRow, error)
}

// OdometerRepository persists odometer readings.
type OdometerRepository interface {
	// InsertReading inserts a successful odometer reading.
	InsertReading(ctx context.Context, row *OdometerReadingRow) error
}
