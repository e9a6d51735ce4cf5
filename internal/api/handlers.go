package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// userID extracts the acting user from the request header.
func userID(r *http.Request) (string, error) {
	id := r.Header.Get(userHeader)
	if id == "" {
		return "", common.NewUserError(fmt.Sprintf("Missing %s header", userHeader), nil)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.NewUserError("Invalid request body", err)
	}
	return nil
}

// parseAmount parses a decimal string and requires it to be positive.
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("Invalid amount %q", s), err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("Amount must be positive, got %s", s), nil)
	}
	return amount, nil
}

// parseDate accepts a plain day or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Invalid date %q, want YYYY-MM-DD or RFC 3339", s), err)
	}
	return t, nil
}

func (s *Server) handleSetupUser(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	categories, err := s.engine.SetupUser(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i := range categories {
		views[i] = viewCategory(&categories[i])
	}
	writeJSON(w, http.StatusOK, envelope{Message: "User ready", Data: views})
}

type createTransactionRequest struct {
	WalletID          string `json:"wallet_id"`
	CategoryID        string `json:"category_id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	ExcludeFromTotals bool   `json:"exclude_from_totals"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txType, err := model.ParseTxType(req.Type)
	if err != nil {
		writeError(w, common.NewUserError(err.Error(), nil))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := s.engine.CreateTransaction(r.Context(), ledger.CreateTransactionParams{
		UserID:            user,
		WalletID:          req.WalletID,
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		Type:              txType,
		Amount:            amount,
		Date:              date,
		ExcludeFromTotals: req.ExcludeFromTotals,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Message: "Transaction recorded", Data: viewTransaction(txn)})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := s.store.ListTransactions(r.Context(), user, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]transactionView, len(txns))
	for i := range txns {
		views[i] = viewTransaction(&txns[i])
	}
	writeJSON(w, http.StatusOK, envelope{Data: views})
}

func parseTransactionFilter(r *http.Request) (service.TransactionFilter, error) {
	q := r.URL.Query()
	filter := service.TransactionFilter{
		WalletID:   q.Get("wallet_id"),
		CategoryID: q.Get("category_id"),
	}

	if v := q.Get("type"); v != "" {
		txType, err := model.ParseTxType(v)
		if err != nil {
			return filter, common.NewUserError(err.Error(), nil)
		}
		filter.Type = txType
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, common.NewUserError(fmt.Sprintf("Invalid limit %q", v), nil)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, common.NewUserError(fmt.Sprintf("Invalid offset %q", v), nil)
		}
		filter.Offset = n
	}
	return filter, nil
}

type updateTransactionRequest struct {
	WalletID   *string `json:"wallet_id"`
	CategoryID *string `json:"category_id"`
	Name       *string `json:"name"`
	Amount     *string `json:"amount"`
	Date       *string `json:"date"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := ledger.UpdateTransactionParams{
		UserID:     user,
		ID:         r.PathValue("id"),
		WalletID:   req.WalletID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		params.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		params.Date = &date
	}

	txn, err := s.engine.UpdateTransaction(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Transaction updated", Data: viewTransaction(txn)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := s.engine.DeleteTransaction(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Transaction deleted", Data: viewTransaction(txn)})
}

type createWalletRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createWalletRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, common.NewUserError("Wallet name is required", nil))
		return
	}

	wallet, err := s.engine.CreateWallet(r.Context(), ledger.CreateWalletParams{
		UserID: user,
		Name:   req.Name,
		Icon:   req.Icon,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Message: "Wallet created", Data: viewWallet(wallet)})
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	wallets, err := s.store.ListWallets(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]walletView, len(wallets))
	for i := range wallets {
		views[i] = viewWallet(&wallets[i])
	}
	writeJSON(w, http.StatusOK, envelope{Data: views})
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.engine.DeleteWallet(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Message: result.Message,
		Data: struct {
			Wallet              walletView `json:"wallet"`
			TransactionsRemoved int64      `json:"transactions_removed"`
			Cleared             bool       `json:"cleared"`
		}{viewWallet(result.Wallet), result.TransactionsRemoved, result.Cleared},
	})
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.FromWalletID == req.ToWalletID {
		writeError(w, common.NewUserError("Cannot transfer from a wallet to itself", nil))
		return
	}

	result, err := s.engine.Transfer(r.Context(), ledger.TransferParams{
		UserID:       user,
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       amount,
		Date:         date,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Message: result.Message,
		Data: struct {
			Source      walletView `json:"source"`
			Destination walletView `json:"destination"`
			OutgoingID  string     `json:"outgoing_id"`
			IncomingID  string     `json:"incoming_id"`
		}{viewWallet(result.Source), viewWallet(result.Destination), result.OutgoingID, result.IncomingID},
	})
}

type createCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, common.NewUserError("Category name is required", nil))
		return
	}
	txType, err := model.ParseTxType(req.Type)
	if err != nil {
		writeError(w, common.NewUserError(err.Error(), nil))
		return
	}

	category, err := s.engine.CreateCategory(r.Context(), ledger.CreateCategoryParams{
		UserID: user,
		Name:   req.Name,
		Icon:   req.Icon,
		Type:   txType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Message: "Category created", Data: viewCategory(category)})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	categories, err := s.store.ListCategories(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]categoryView, len(categories))
	for i := range categories {
		views[i] = viewCategory(&categories[i])
	}
	writeJSON(w, http.StatusOK, envelope{Data: views})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteCategory(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Category deleted"})
}

type createBudgetRequest struct {
	CategoryID string `json:"category_id"`
	WalletID   string `json:"wallet_id"`
	Total      string `json:"total"`
	Begin      string `json:"begin"`
	End        string `json:"end"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	total, err := parseAmount(req.Total)
	if err != nil {
		writeError(w, err)
		return
	}
	begin, err := parseDate(req.Begin)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		writeError(w, err)
		return
	}
	if begin.After(end) {
		writeError(w, common.NewUserError("Budget begin date is after its end date", nil))
		return
	}

	budget, err := s.engine.CreateBudget(r.Context(), ledger.CreateBudgetParams{
		UserID:     user,
		CategoryID: req.CategoryID,
		WalletID:   req.WalletID,
		Total:      total,
		Begin:      begin,
		End:        end,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Message: "Budget created", Data: viewBudget(budget)})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	budgets, err := s.store.ListBudgets(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]budgetView, len(budgets))
	for i := range budgets {
		views[i] = viewBudget(&budgets[i])
	}
	writeJSON(w, http.StatusOK, envelope{Data: views})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteBudget(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Budget deleted"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := s.engine.Verify(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: viewVerifyReport(report)})
}
