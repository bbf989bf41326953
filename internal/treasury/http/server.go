package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/treasury/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/treasury/repo"
)

// Repo define as operações de tesouraria usadas pelo handler HTTP
type Repo interface {
	GetOrCreateAccount(ctx context.Context, owner string) (accountID string, balance int64, err error)
	Deposit(ctx context.Context, owner string, amount int64, externalRef string) (accountID string, newBalance int64, err error)
	Withdraw(ctx context.Context, owner string, amount int64, externalRef string) (accountID string, newBalance int64, err error)
	Pull(ctx context.Context, owner string, amount int64, externalRef string) (transferID string, err error)
	Push(ctx context.Context, to string, amount int64, externalRef string) (transferID string, err error)
}

// Server expõe os endpoints do value transfer adapter
type Server struct {
	log  *zap.Logger
	repo Repo
}

func NewServer(log *zap.Logger, repo Repo) *Server { return &Server{log: log, repo: repo} }

// Router retorna o mux HTTP com as rotas da API de tesouraria
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/treasury/accounts", s.getAccount) // GET ?owner=...
	mux.HandleFunc("/treasury/deposit", s.deposit)     // POST
	mux.HandleFunc("/treasury/withdraw", s.withdraw)   // POST
	mux.HandleFunc("/treasury/pull", s.pull)           // POST (transferFrom)
	mux.HandleFunc("/treasury/push", s.push)           // POST (transfer)
	return mux
}

// getAccount retorna (ou cria) a conta e saldo do usuário
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner required", http.StatusBadRequest)
		return
	}
	accountID, bal, err := s.repo.GetOrCreateAccount(r.Context(), owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.AccountResponse{Owner: owner, AccountID: accountID, BalanceCents: bal})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Owner == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	accountID, bal, err := s.repo.Deposit(r.Context(), req.Owner, req.AmountCents, req.ExternalRef)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.AccountResponse{Owner: req.Owner, AccountID: accountID, BalanceCents: bal})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Owner == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	accountID, bal, err := s.repo.Withdraw(r.Context(), req.Owner, req.AmountCents, req.ExternalRef)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, dto.AccountResponse{Owner: req.Owner, AccountID: accountID, BalanceCents: bal})
}

// pull puxa escrow do dono para a custódia do engine
func (s *Server) pull(w http.ResponseWriter, r *http.Request) {
	var req dto.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Owner == "" || req.AmountCents <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	id, err := s.repo.Pull(r.Context(), req.Owner, req.AmountCents, req.ExternalRef)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, dto.TransferResponse{TransferID: id, Status: "OK"})
}

// push desembolsa da custódia do engine para a conta destino
func (s *Server) push(w http.ResponseWriter, r *http.Request) {
	var req dto.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.To == "" || req.AmountCents <= 0 || req.ExternalRef == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	id, err := s.repo.Push(r.Context(), req.To, req.AmountCents, req.ExternalRef)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, dto.TransferResponse{TransferID: id, Status: "OK"})
}

func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repo.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
