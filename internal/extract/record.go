package extract

import (
	"time"
)

// Kind distinguishes money going out from money coming in.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Source records where an extracted transaction came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceText   Source = "text"
	SourceOCR    Source = "ocr"
)

// Default values shared by every extraction path. The confidence split
// follows the review-queue thresholds: 0.5 marks a fallback record that a
// human must fill in, 0.8 is a nominal extraction the model did not score.
const (
	DefaultCurrency     = "EUR"
	CategoryOther       = "other"
	FallbackConfidence  = 0.5
	DefaultConfidence   = 0.8
	FallbackDescription = "Despesa por rever"
)

// AllowedCategories is the fixed category taxonomy. Anything the model
// invents outside this set is coerced to "other" before persistence.
var AllowedCategories = map[string]bool{
	"refeicoes":   true,
	"transporte":  true,
	"alojamento":  true,
	"software":    true,
	"marketing":   true,
	"equipamento": true,
	"servicos":    true,
	"impostos":    true,
	"salarios":    true,
	CategoryOther: true,
}

// Record is one normalized transaction ready to be persisted as a pending
// row. The model answers with Portuguese field names; this struct is the
// canonical English-named form every handler converges on.
type Record struct {
	Kind         Kind      `json:"kind"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	OccurredOn   time.Time `json:"occurred_on"`
	Counterparty string    `json:"counterparty,omitempty"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Confidence   float64   `json:"confidence"`
	Source       Source    `json:"source"`
}

// OdometerReading is the structured result of the odometer OCR path.
// KMReading stays nil when the image could not be read; Notes carries the
// model's explanation verbatim so the caller can show it to the user.
type OdometerReading struct {
	Success    bool     `json:"success"`
	KMReading  *float64 `json:"km_reading"`
	Confidence float64  `json:"confidence"`
	Notes      string   `json:"notes,omitempty"`
}

// LeadAnalysis is the structured result of AI lead triage.
type LeadAnalysis struct {
	Score             int     `json:"score"`
	Fit               string  `json:"fit"`
	Summary           string  `json:"summary"`
	RecommendedAction string  `json:"recommended_action,omitempty"`
	Confidence        float64 `json:"confidence"`
}

// Valid fit values for lead analysis; anything else becomes "medium".
var allowedFits = map[string]bool{
	"high":   true,
	"medium": true,
	"low":    true,
}
