package extract

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NormalizeTransaction converts a model answer into a validated Record.
// It never fails: if the answer contains no parseable JSON the result is
// the deterministic fallback record, and every field is validated
// unconditionally regardless of how the parse went. inputText is the text
// the user originally submitted; it becomes the description when the model
// gives none.
func NormalizeTransaction(raw, inputText string, source Source, now time.Time) Record {
	obj, ok := FirstJSONObject(raw)
	if !ok {
		return FallbackRecord(inputText, source, now)
	}

	rec := Record{
		Kind:     KindExpense,
		Currency: DefaultCurrency,
		Source:   source,
	}

	if kind := stringField(obj, "tipo", "kind", "type"); kind == "receita" || kind == "income" {
		rec.Kind = KindIncome
	}

	if amount, ok := numberField(obj, "valor", "amount"); ok && amount > 0 {
		rec.Amount = amount
	}

	if currency := stringField(obj, "moeda", "currency"); currency != "" {
		rec.Currency = strings.ToUpper(currency)
	}

	rec.OccurredOn = parseDate(stringField(obj, "data", "date"), now)
	rec.Counterparty = stringField(obj, "comerciante", "merchant", "counterparty")

	rec.Description = stringField(obj, "descricao", "description")
	if rec.Description == "" {
		rec.Description = fallbackDescription(inputText)
	}

	rec.Category = NormalizeCategory(stringField(obj, "categoria", "category"))
	rec.Confidence = normalizeConfidence(obj, "confianca", "confidence")

	return rec
}

// FallbackRecord is the deterministic record used when extraction fails
// outright. It lands in the pending review queue with low confidence so a
// human fills in what the model could not.
func FallbackRecord(inputText string, source Source, now time.Time) Record {
	return Record{
		Kind:        KindExpense,
		Amount:      0,
		Currency:    DefaultCurrency,
		OccurredOn:  now,
		Description: fallbackDescription(inputText),
		Category:    CategoryOther,
		Confidence:  FallbackConfidence,
		Source:      source,
	}
}

// NormalizeOdometer converts a model answer from the odometer OCR prompt
// into a reading. Unreadable images come back as success=false with the
// model's notes preserved verbatim.
func NormalizeOdometer(raw string) OdometerReading {
	obj, ok := FirstJSONObject(raw)
	if !ok {
		return OdometerReading{
			Success: false,
			Notes:   "could not read odometer",
		}
	}

	reading := OdometerReading{Notes: stringField(obj, "notes", "notas")}

	success, hasSuccess := boolField(obj, "success", "sucesso")
	km, hasKM := numberField(obj, "km_reading", "km", "leitura_km")

	if hasKM && km >= 0 && (success || !hasSuccess) {
		reading.Success = true
		reading.KMReading = &km
		reading.Confidence = normalizeConfidence(obj, "confidence", "confianca")
		return reading
	}

	if reading.Notes == "" {
		reading.Notes = "could not read odometer"
	}
	return reading
}

// NormalizeLeadAnalysis converts a model answer from the lead triage
// prompt into a validated analysis. Score clamps to [0,100], fit to the
// allowed set.
func NormalizeLeadAnalysis(raw string) LeadAnalysis {
	obj, ok := FirstJSONObject(raw)
	if !ok {
		return LeadAnalysis{
			Score:      50,
			Fit:        "medium",
			Summary:    "Analise automatica indisponivel; rever manualmente.",
			Confidence: FallbackConfidence,
		}
	}

	analysis := LeadAnalysis{
		Summary:           stringField(obj, "summary", "resumo"),
		RecommendedAction: stringField(obj, "recommended_action", "acao_recomendada"),
		Confidence:        normalizeConfidence(obj, "confidence", "confianca"),
	}

	if score, ok := numberField(obj, "score", "pontuacao"); ok {
		analysis.Score = int(math.Round(math.Min(100, math.Max(0, score))))
	} else {
		analysis.Score = 50
	}

	fit := strings.ToLower(stringField(obj, "fit"))
	if !allowedFits[fit] {
		fit = "medium"
	}
	analysis.Fit = fit

	if analysis.Summary == "" {
		analysis.Summary = "Analise automatica indisponivel; rever manualmente."
	}

	return analysis
}

// NormalizeCategory coerces a model-supplied category into the fixed
// taxonomy; anything outside it becomes "other".
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if !AllowedCategories[c] {
		return CategoryOther
	}
	return c
}

// ClampConfidence forces a confidence score into [0,1].
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// normalizeConfidence reads a confidence value from the parsed object,
// clamping to [0,1] and defaulting to 0.8 when the model omitted it.
func normalizeConfidence(obj map[string]interface{}, keys ...string) float64 {
	if c, ok := numberField(obj, keys...); ok {
		return ClampConfidence(c)
	}
	return DefaultConfidence
}

// coerceNumber accepts JSON numbers as well as numbers the model wrote as
// locale-formatted strings: "45,50" → 45.5, "1.234,56" → 1234.56.
func coerceNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimRight(s, "€$£ ")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ",") {
			// Comma is the decimal separator; any dots are thousands marks.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseDate reads a YYYY-MM-DD date, falling back to "today" when the
// model produced anything else.
func parseDate(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return now
	}
	return d
}

func fallbackDescription(inputText string) string {
	if s := strings.TrimSpace(inputText); s != "" {
		return s
	}
	return FallbackDescription
}
