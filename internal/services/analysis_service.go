// Package services – AnalysisService
//
// This file implements AnalysisService, which assembles the caller's budgets
// and recent expenses into a payload and hands it to the request gate for a
// rate-limited, cached completion.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/moneywise/internal/repo"
)

// Analyzer is the request gate contract used by AnalysisService.
type Analyzer interface {
	AcquireAndAnalyze(ctx context.Context, userID, prompt string, data any) (string, error)
}

// AnalysisBudget is one budget line of the analysis payload.
type AnalysisBudget struct {
	Category string          `json:"category"`
	Month    string          `json:"month"`
	Limit    decimal.Decimal `json:"limit"`
}

// AnalysisExpense is one expense line of the analysis payload.
type AnalysisExpense struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// AnalysisData is the payload sent along with the prompt.
type AnalysisData struct {
	Month        string            `json:"month"`
	LookbackDays int               `json:"lookback_days"`
	Budgets      []AnalysisBudget  `json:"budgets"`
	Expenses     []AnalysisExpense `json:"expenses"`
}

// AnalysisService runs AI analysis over a user's finances.
type AnalysisService struct {
	DB   *gorm.DB
	Gate Analyzer

	// MaxPromptRunes caps the user prompt length.
	MaxPromptRunes int
	// Lookback is how far back expenses are included.
	Lookback time.Duration

	now func() time.Time
}

// NewAnalysisService constructs an AnalysisService with a 2000-rune prompt
// cap and a 90-day expense lookback.
func NewAnalysisService(db *gorm.DB, g Analyzer) *AnalysisService {
	return &AnalysisService{
		DB:             db,
		Gate:           g,
		MaxPromptRunes: 2000,
		Lookback:       90 * 24 * time.Hour,
		now:            time.Now,
	}
}

// Analyze validates prompt, loads the current month's budgets and the
// lookback window's expenses, and returns the gate's answer. Gate errors are
// returned unchanged.
func (s *AnalysisService) Analyze(ctx context.Context, userID, prompt string) (string, error) {
	ctx, span := otel.Tracer("services/AnalysisService").Start(ctx, "Analyze",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return "", ErrTooLong
	}

	data, err := s.loadData(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.Gate.AcquireAndAnalyze(ctx, userID, prompt, data)
}

func (s *AnalysisService) loadData(ctx context.Context, userID string) (AnalysisData, error) {
	now := s.now().UTC()
	month := MonthOf(now)

	budgets, err := repo.ListBudgets(ctx, s.DB, userID, month)
	if err != nil {
		return AnalysisData{}, err
	}
	expenses, err := repo.ListExpenses(ctx, s.DB, userID, repo.ExpenseFilter{
		From: dateOnly(now.Add(-s.Lookback)),
		To:   dateOnly(now).AddDate(0, 0, 1),
	})
	if err != nil {
		return AnalysisData{}, err
	}

	out := AnalysisData{
		Month:        month,
		LookbackDays: int(s.Lookback.Hours() / 24),
		Budgets:      make([]AnalysisBudget, 0, len(budgets)),
		Expenses:     make([]AnalysisExpense, 0, len(expenses)),
	}
	for _, b := range budgets {
		out.Budgets = append(out.Budgets, AnalysisBudget{Category: b.Category, Month: b.Month, Limit: b.Limit})
	}
	for _, e := range expenses {
		out.Expenses = append(out.Expenses, AnalysisExpense{
			Date:        e.Date.Format(time.DateOnly),
			Category:    e.Category,
			Amount:      e.Amount,
			Description: e.Description,
		})
	}
	return out, nil
}

var analysisTmpl = template.Must(template.New("analysis").Parse(
	`The user asks: {{.Prompt}}

Current month: {{.Month}}
Budgets (JSON):
{{.Budgets}}
Expenses from the last {{.Days}} days (JSON):
{{.Expenses}}

Answer the question using only this data. Point out categories over or close to their budget and suggest concrete savings.`))

// RenderAnalysisPrompt builds the completion prompt for data of type
// AnalysisData. Other payloads are appended as JSON.
func RenderAnalysisPrompt(prompt string, data any) (string, error) {
	d, ok := data.(AnalysisData)
	if !ok {
		raw, err := json.Marshal(data)
		if err != nil {
			return "", err
		}
		return prompt + "\n\n" + string(raw), nil
	}
	budgets, err := json.Marshal(d.Budgets)
	if err != nil {
		return "", err
	}
	expenses, err := json.Marshal(d.Expenses)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = analysisTmpl.Execute(&buf, map[string]any{
		"Prompt":   prompt,
		"Month":    d.Month,
		"Budgets":  string(budgets),
		"Expenses": string(expenses),
		"Days":     d.LookbackDays,
	})
	return buf.String(), err
}
