package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/bets/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/engine"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/ledger"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
)

// OracleRequester é o lado de requisição do gateway exposto na API
type OracleRequester interface {
	RequestScore(ctx context.Context) (string, error)
	RequestStatus(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (gateway.Snapshot, error)
}

type Server struct {
	log    *zap.Logger
	engine *engine.Engine
	oracle OracleRequester
}

func NewServer(log *zap.Logger, eng *engine.Engine, oracle OracleRequester) *Server {
	return &Server{log: log, engine: eng, oracle: oracle}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.bets)     // POST cria, GET lista
	mux.HandleFunc("/bets/", s.betByID) // GET /bets/{id}; POST /bets/{id}/{take|cancel|execute}
	mux.HandleFunc("/oracle/requests/score", s.requestScore)
	mux.HandleFunc("/oracle/requests/status", s.requestStatus)
	mux.HandleFunc("/oracle/game", s.gameSnapshot)
	return mux
}

func (s *Server) bets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBet(w, r)
	case http.MethodGet:
		s.listBets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Account == "" || req.ContractAmount <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// Modelo legado: cliente que manda os dois preços precisa mandar um
	// par coerente com a escala
	if req.BetPriceOther != nil {
		if err := engine.ValidatePricePair(req.BetPrice, *req.BetPriceOther); err != nil {
			writeEngineError(w, err)
			return
		}
	}

	var (
		bet *ledger.Bet
		err error
	)
	switch req.Side {
	case "A":
		bet, err = s.engine.CreateBetA(r.Context(), req.Account, req.BetPrice, req.ContractAmount)
	case "B":
		bet, err = s.engine.CreateBetB(r.Context(), req.Account, req.BetPrice, req.ContractAmount)
	default:
		http.Error(w, "side must be A or B", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, toBetResponse(bet))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	state := ledger.State(r.URL.Query().Get("state"))
	switch state {
	case ledger.StateOpenA, ledger.StateOpenB, ledger.StateMatched:
	default:
		http.Error(w, "state must be OPEN_A, OPEN_B or MATCHED", http.StatusBadRequest)
		return
	}
	bets, err := s.engine.ListBets(r.Context(), state)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := dto.BetListResponse{Bets: make([]dto.BetResponse, 0, len(bets))}
	for _, b := range bets {
		out.Bets = append(out.Bets, toBetResponse(b))
	}
	writeJSON(w, out)
}

// betByID roteia /bets/{id} e /bets/{id}/{take|cancel|execute}
func (s *Server) betByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path[len("/bets/"):], "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid betId", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		bet, err := s.engine.GetBet(r.Context(), id)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, toBetResponse(bet))
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch parts[1] {
	case "take":
		s.takeBet(w, r, id)
	case "cancel":
		s.cancelBet(w, r, id)
	case "execute":
		s.executeBet(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) takeBet(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.TakeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bet, err := s.engine.TakeBet(r.Context(), req.Account, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, toBetResponse(bet))
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.CancelBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var err error
	switch req.Side {
	case "A":
		err = s.engine.CancelBetA(r.Context(), req.Account, id)
	case "B":
		err = s.engine.CancelBetB(r.Context(), req.Account, id)
	default:
		http.Error(w, "side must be A or B", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, dto.CancelBetResponse{Status: "CANCELED"})
}

func (s *Server) executeBet(w http.ResponseWriter, r *http.Request, id int64) {
	var req dto.ExecuteBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.engine.ExecuteBet(r.Context(), req.Account, id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, dto.ExecuteBetResponse{Status: "EXECUTED"})
}

func (s *Server) requestScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := s.oracle.RequestScore(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, dto.OracleRequestResponse{RequestID: id, Kind: "score"})
}

func (s *Server) requestStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := s.oracle.RequestStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, dto.OracleRequestResponse{RequestID: id, Kind: "status"})
}

func (s *Server) gameSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.oracle.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snap)
}

// writeEngineError mapeia a taxonomia de erros do engine para HTTP,
// preservando a razão específica no corpo
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, engine.ErrPricesMismatched):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrNotWinner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, engine.ErrTransferFailed),
		errors.Is(err, engine.ErrGameStarted),
		errors.Is(err, engine.ErrGameNotFinished),
		errors.Is(err, engine.ErrStaleOracle):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toBetResponse(b *ledger.Bet) dto.BetResponse {
	return dto.BetResponse{
		BetID:          b.ID,
		GameID:         b.GameID,
		AccountA:       b.AccountA,
		AccountB:       b.AccountB,
		BetPriceA:      b.PriceA(),
		BetPriceB:      b.PriceB(engine.PriceScale),
		ContractAmount: b.ContractAmount,
		State:          string(b.State),
		CreatedAt:      b.CreatedAt,
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
