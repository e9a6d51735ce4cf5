// Package api exposes the ledger engine over a small JSON HTTP surface.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/service"
)

// userHeader identifies the acting user on every /v1 request.
const userHeader = "X-Tally-User"

// Server wires the mutation endpoints onto the ledger engine. Reads go
// straight to the store; every write goes through the engine so the
// aggregate views stay consistent.
type Server struct {
	http.Server
	engine *ledger.Ledger
	store  service.Storage
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, engine *ledger.Ledger, store service.Storage) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		store:  store,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /v1/users/setup", s.withRequestLog(s.handleSetupUser))

	mux.HandleFunc("POST /v1/transactions", s.withRequestLog(s.handleCreateTransaction))
	mux.HandleFunc("GET /v1/transactions", s.withRequestLog(s.handleListTransactions))
	mux.HandleFunc("PATCH /v1/transactions/{id}", s.withRequestLog(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /v1/transactions/{id}", s.withRequestLog(s.handleDeleteTransaction))

	mux.HandleFunc("POST /v1/wallets", s.withRequestLog(s.handleCreateWallet))
	mux.HandleFunc("GET /v1/wallets", s.withRequestLog(s.handleListWallets))
	mux.HandleFunc("DELETE /v1/wallets/{id}", s.withRequestLog(s.handleDeleteWallet))
	mux.HandleFunc("POST /v1/transfers", s.withRequestLog(s.handleTransfer))

	mux.HandleFunc("POST /v1/categories", s.withRequestLog(s.handleCreateCategory))
	mux.HandleFunc("GET /v1/categories", s.withRequestLog(s.handleListCategories))
	mux.HandleFunc("DELETE /v1/categories/{id}", s.withRequestLog(s.handleDeleteCategory))

	mux.HandleFunc("POST /v1/budgets", s.withRequestLog(s.handleCreateBudget))
	mux.HandleFunc("GET /v1/budgets", s.withRequestLog(s.handleListBudgets))
	mux.HandleFunc("DELETE /v1/budgets/{id}", s.withRequestLog(s.handleDeleteBudget))

	mux.HandleFunc("GET /v1/verify", s.withRequestLog(s.handleVerify))

	return s
}

// withRequestLog tags each request with an id and logs start/finish with the
// final status code.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		slog.Info("request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
