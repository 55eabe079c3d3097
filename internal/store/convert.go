package store

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/rpcosta/agency-ops/internal/extract"
)

// NewPendingTransaction converts a normalized extraction record into a
// pending review row. Used by both the synchronous extraction handlers
// and the background receipt pipeline.
func NewPendingTransaction(record extract.Record, userEmail, receiptID string, now time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID: uuid.New().String(),
		UserEmail:     userEmail,
		Kind:          string(record.Kind),
		Amount:        new(big.Rat).SetFloat64(record.Amount),
		Currency:      record.Currency,
		OccurredOn:    civil.DateOf(record.OccurredOn),
		Counterparty:  record.Counterparty,
		Description:   record.Description,
		Category:      record.Category,
		Confidence:    record.Confidence,
		Source:        string(record.Source),
		Status:        TransactionStatusPending,
		CreatedTS:     now.UTC(),
	}

	if receiptID != "" {
		row.ReceiptID = bigquery.NullString{StringVal: receiptID, Valid: true}
	}

	return row
}
