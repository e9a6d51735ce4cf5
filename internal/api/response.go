package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
)

// envelope is the uniform success body: an optional human message plus the
// payload.
type envelope struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the error chain onto an HTTP status and emits the
// user-facing message, never the internal error text.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	} else {
		slog.Debug("request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: common.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, common.ErrLimitReached):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrInconsistentState):
		return http.StatusInternalServerError
	}

	// A UserError without a sentinel cause is a rejected input.
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// View DTOs. Amounts render as decimal strings so clients never see floats.

type transactionView struct {
	ID                string `json:"id"`
	WalletID          string `json:"wallet_id"`
	CategoryID        string `json:"category_id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	ExcludeFromTotals bool   `json:"exclude_from_totals"`
}

func viewTransaction(t *model.Transaction) transactionView {
	return transactionView{
		ID:                t.ID,
		WalletID:          t.WalletID,
		CategoryID:        t.CategoryID,
		Name:              t.Name,
		Type:              string(t.Type),
		Amount:            t.Amount.String(),
		Date:              t.Date.Format(time.RFC3339),
		ExcludeFromTotals: t.ExcludeFromTotals,
	}
}

type walletView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon,omitempty"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Saving  string `json:"saving"`
	Invest  string `json:"invest"`
	Balance string `json:"balance"`
}

func viewWallet(w *model.Wallet) walletView {
	return walletView{
		ID:      w.ID,
		Name:    w.Name,
		Icon:    w.Icon,
		Income:  w.Income.String(),
		Expense: w.Expense.String(),
		Saving:  w.Saving.String(),
		Invest:  w.Invest.String(),
		Balance: w.Balance().String(),
	}
}

type categoryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Deletable bool   `json:"deletable"`
}

func viewCategory(c *model.Category) categoryView {
	return categoryView{
		ID:        c.ID,
		Name:      c.Name,
		Icon:      c.Icon,
		Type:      string(c.Type),
		Amount:    c.Amount.String(),
		Deletable: c.Deletable,
	}
}

type budgetView struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Total      string `json:"total"`
	Amount     string `json:"amount"`
	Remaining  string `json:"remaining"`
	Begin      string `json:"begin"`
	End        string `json:"end"`
}

func viewBudget(b *model.Budget) budgetView {
	return budgetView{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Total:      b.Total.String(),
		Amount:     b.Amount.String(),
		Remaining:  b.Remaining().String(),
		Begin:      b.Begin.Format("2006-01-02"),
		End:        b.End.Format("2006-01-02"),
	}
}

type mismatchView struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
}

type verifyView struct {
	Clean             bool           `json:"clean"`
	CategoriesChecked int            `json:"categories_checked"`
	WalletsChecked    int            `json:"wallets_checked"`
	BudgetsChecked    int            `json:"budgets_checked"`
	Mismatches        []mismatchView `json:"mismatches,omitempty"`
}

func viewVerifyReport(r *ledger.VerifyReport) verifyView {
	v := verifyView{
		Clean:             r.Clean(),
		CategoriesChecked: r.CategoriesChecked,
		WalletsChecked:    r.WalletsChecked,
		BudgetsChecked:    r.BudgetsChecked,
	}
	for _, m := range r.Mismatches {
		v.Mismatches = append(v.Mismatches, mismatchView{
			Kind:     m.Kind,
			ID:       m.ID,
			Name:     m.Name,
			Stored:   m.Stored.String(),
			Computed: m.Computed.String(),
		})
	}
	return v
}
