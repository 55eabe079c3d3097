package extract

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC)

func TestNormalizeTransaction_WellFormedAnswer(t *testing.T) {
	raw := `{"tipo":"despesa","valor":45.5,"moeda":"EUR","data":"2024-06-12",` +
		`"comerciante":"Blue Bottle","descricao":"Almoço com cliente","categoria":"refeicoes","confianca":0.95}`

	rec := NormalizeTransaction(raw, "Paguei 45,50€ por almoço com cliente no Blue Bottle", SourceText, testNow)

	if rec.Kind != KindExpense {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindExpense)
	}
	if rec.Amount != 45.5 {
		t.Errorf("Amount = %v, want 45.5", rec.Amount)
	}
	if rec.Category != "refeicoes" {
		t.Errorf("Category = %q, want refeicoes", rec.Category)
	}
	if rec.Counterparty != "Blue Bottle" {
		t.Errorf("Counterparty = %q, want Blue Bottle", rec.Counterparty)
	}
	if rec.OccurredOn.Format("2006-01-02") != "2024-06-12" {
		t.Errorf("OccurredOn = %v, want 2024-06-12", rec.OccurredOn)
	}
	if rec.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", rec.Confidence)
	}
	if rec.Source != SourceText {
		t.Errorf("Source = %q, want %q", rec.Source, SourceText)
	}
}

func TestNormalizeTransaction_JSONWrappedInProse(t *testing.T) {
	raw := "Claro! Aqui está a transação extraída:\n\n```json\n" +
		`{"tipo":"receita","valor":"1.200,00","moeda":"eur","data":"2024-03-01","descricao":"Avença mensal","categoria":"servicos"}` +
		"\n```\nEspero que ajude."

	rec := NormalizeTransaction(raw, "", SourceText, testNow)

	if rec.Kind != KindIncome {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindIncome)
	}
	if rec.Amount != 1200 {
		t.Errorf("Amount = %v, want 1200", rec.Amount)
	}
	if rec.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", rec.Currency)
	}
	// Model omitted confidence: nominal default applies.
	if rec.Confidence != DefaultConfidence {
		t.Errorf("Confidence = %v, want %v", rec.Confidence, DefaultConfidence)
	}
}

func TestNormalizeTransaction_NoJSONFallsBack(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not find a transaction in that text.",
		"{broken json",
		"```json\nnot even close\n```",
	} {
		rec := NormalizeTransaction(raw, "jantar de equipa", SourceText, testNow)

		if rec.Confidence != FallbackConfidence {
			t.Errorf("raw %q: Confidence = %v, want %v", raw, rec.Confidence, FallbackConfidence)
		}
		if rec.Category != CategoryOther {
			t.Errorf("raw %q: Category = %q, want %q", raw, rec.Category, CategoryOther)
		}
		if rec.Description != "jantar de equipa" {
			t.Errorf("raw %q: Description = %q, want original input text", raw, rec.Description)
		}
		if rec.Amount != 0 {
			t.Errorf("raw %q: Amount = %v, want 0", raw, rec.Amount)
		}
		if !rec.OccurredOn.Equal(testNow) {
			t.Errorf("raw %q: OccurredOn = %v, want now", raw, rec.OccurredOn)
		}
	}
}

func TestNormalizeTransaction_UnknownCategoryCoerced(t *testing.T) {
	raw := `{"tipo":"despesa","valor":12,"categoria":"criptomoedas"}`

	rec := NormalizeTransaction(raw, "x", SourceOCR, testNow)
	if rec.Category != CategoryOther {
		t.Errorf("Category = %q, want %q", rec.Category, CategoryOther)
	}
}

func TestNormalizeTransaction_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		confidence string
		want       float64
	}{
		{"1.4", 1.0},
		{"-0.2", 0.0},
		{"0.75", 0.75},
	}

	for _, tt := range tests {
		raw := `{"tipo":"despesa","valor":5,"categoria":"other","confianca":` + tt.confidence + `}`
		rec := NormalizeTransaction(raw, "x", SourceText, testNow)
		if rec.Confidence != tt.want {
			t.Errorf("confianca=%s: Confidence = %v, want %v", tt.confidence, rec.Confidence, tt.want)
		}
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
		ok    bool
	}{
		{"json number", 45.5, 45.5, true},
		{"comma decimal", "45,50", 45.5, true},
		{"thousands and comma", "1.234,56", 1234.56, true},
		{"plain dot decimal", "45.50", 45.5, true},
		{"currency suffix", "45,50€", 45.5, true},
		{"empty string", "", 0, false},
		{"garbage", "quarenta e cinco", 0, false},
		{"wrong type", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("coerceNumber(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("coerceNumber(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeOdometer(t *testing.T) {
	t.Run("readable", func(t *testing.T) {
		raw := `{"success":true,"km_reading":123456,"confidence":0.92,"notes":""}`
		got := NormalizeOdometer(raw)

		if !got.Success {
			t.Fatal("Success = false, want true")
		}
		if got.KMReading == nil || *got.KMReading != 123456 {
			t.Errorf("KMReading = %v, want 123456", got.KMReading)
		}
		if got.Confidence != 0.92 {
			t.Errorf("Confidence = %v, want 0.92", got.Confidence)
		}
	})

	t.Run("unreadable image keeps notes verbatim", func(t *testing.T) {
		raw := `{"success":false,"km_reading":null,"confidence":0,"notes":"blurry image"}`
		got := NormalizeOdometer(raw)

		if got.Success {
			t.Error("Success = true, want false")
		}
		if got.KMReading != nil {
			t.Errorf("KMReading = %v, want nil", *got.KMReading)
		}
		if got.Notes != "blurry image" {
			t.Errorf("Notes = %q, want %q", got.Notes, "blurry image")
		}
	})

	t.Run("no json at all", func(t *testing.T) {
		got := NormalizeOdometer("sorry, I can't help with that")

		if got.Success || got.KMReading != nil {
			t.Errorf("got %+v, want failed reading", got)
		}
		if got.Notes == "" {
			t.Error("Notes empty, want explanatory note")
		}
	})
}

func TestNormalizeLeadAnalysis(t *testing.T) {
	t.Run("clamps score and fit", func(t *testing.T) {
		raw := `{"score":140,"fit":"amazing","summary":"Great lead","confidence":2}`
		got := NormalizeLeadAnalysis(raw)

		if got.Score != 100 {
			t.Errorf("Score = %d, want 100", got.Score)
		}
		if got.Fit != "medium" {
			t.Errorf("Fit = %q, want medium", got.Fit)
		}
		if got.Confidence != 1.0 {
			t.Errorf("Confidence = %v, want 1.0", got.Confidence)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		got := NormalizeLeadAnalysis("no dice")
		if got.Score != 50 || got.Fit != "medium" || got.Confidence != FallbackConfidence {
			t.Errorf("got %+v, want neutral fallback", got)
		}
	})
}
