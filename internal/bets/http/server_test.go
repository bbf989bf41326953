package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/bets/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/engine"
	"github.com/radieske/p2p-wager-platform-poc/internal/bets/ledger"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// stubBank aceita qualquer transferência; falha sob demanda
type stubBank struct{ err error }

func (s *stubBank) Pull(context.Context, string, int64, string) error { return s.err }
func (s *stubBank) Push(context.Context, string, int64, string) error { return s.err }

// stubPublisher descarta eventos de aposta e requisições do oráculo
type stubPublisher struct{}

func (stubPublisher) PublishBetEvent(context.Context, events.BetEvent) error           { return nil }
func (stubPublisher) PublishOracleRequest(context.Context, events.OracleRequest) error { return nil }

type testEnv struct {
	handler http.Handler
	gw      *gateway.Gateway
	bank    *stubBank
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	bank := &stubBank{}
	gw := gateway.New(log, gateway.NewMemoryStore(), stubPublisher{}, "GAME_001")
	eng := engine.New(log, ledger.NewMemory(), gw, bank, stubPublisher{}, engine.Params{
		GameID:          "GAME_001",
		StakeAsset:      "USDC",
		UnitValueCents:  100,
		ExecutionFeeBps: 100,
		FeeRecipient:    "house",
	})
	return &testEnv{
		handler: NewServer(log, eng, gw).Router(),
		gw:      gw,
		bank:    bank,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// setOracle injeta um estado do feed passando pela máquina de estados real
func (e *testEnv) setOracle(t *testing.T, status string, home, away int64) {
	t.Helper()
	ctx := context.Background()
	at := time.Now().UTC().Add(time.Minute)

	id, err := e.gw.RequestStatus(ctx)
	require.NoError(t, err)
	require.NoError(t, e.gw.FulfillStatus(ctx, id, status, at))

	id, err = e.gw.RequestScore(ctx)
	require.NoError(t, err)
	require.NoError(t, e.gw.FulfillScore(ctx, id, home, away, at))
}

func TestCreateTakeExecuteOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 8, ContractAmount: 10,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created dto.BetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, int64(1), created.BetID)
	require.Equal(t, "OPEN_B", created.State)
	require.Equal(t, int64(8), created.BetPriceA)
	require.Equal(t, int64(2), created.BetPriceB)

	rec = env.do(t, http.MethodPost, "/bets/1/take", dto.TakeBetRequest{Account: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	var taken dto.BetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taken))
	require.Equal(t, "MATCHED", taken.State)
	require.Equal(t, "bob", taken.AccountB)

	env.setOracle(t, gateway.StatusFullTime, 2, 1)

	rec = env.do(t, http.MethodPost, "/bets/1/execute", dto.ExecuteBetRequest{Account: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	// registro limpo: o id some da API
	rec = env.do(t, http.MethodGet, "/bets/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBetLegacyPricePair(t *testing.T) {
	env := newTestEnv(t)
	other := int64(4)

	rec := env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, BetPriceOther: &other, ContractAmount: 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	bad := int64(5)
	rec = env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, BetPriceOther: &bad, ContractAmount: 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBetBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "X", BetPrice: 6, ContractAmount: 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 0, ContractAmount: 1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTakeUnknownBetReturns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/bets/99/take", dto.TakeBetRequest{Account: "bob"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEscrowFailureReturns409(t *testing.T) {
	env := newTestEnv(t)
	env.bank.err = errors.New("insufficient funds")

	rec := env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelAfterKickoffReturns409(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	env.setOracle(t, gateway.StatusLive, 0, 0)

	rec = env.do(t, http.MethodPost, "/bets/1/cancel", dto.CancelBetRequest{Account: "alice", Side: "A"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelBeforeKickoffSucceeds(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	env.setOracle(t, gateway.StatusNotStarted, 0, 0)

	rec := env.do(t, http.MethodPost, "/bets/1/cancel", dto.CancelBetRequest{Account: "alice", Side: "A"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.CancelBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "CANCELED", resp.Status)
}

func TestExecuteByLoserReturns403(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	env.do(t, http.MethodPost, "/bets/1/take", dto.TakeBetRequest{Account: "bob"})
	env.setOracle(t, gateway.StatusFullTime, 2, 1)

	rec := env.do(t, http.MethodPost, "/bets/1/execute", dto.ExecuteBetRequest{Account: "bob"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExecuteBeforeFullTimeReturns409(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
		Account: "alice", Side: "A", BetPrice: 6, ContractAmount: 1,
	})
	env.do(t, http.MethodPost, "/bets/1/take", dto.TakeBetRequest{Account: "bob"})
	env.setOracle(t, gateway.StatusLive, 1, 0)

	rec := env.do(t, http.MethodPost, "/bets/1/execute", dto.ExecuteBetRequest{Account: "alice"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListBetsByState(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/bets", dto.CreateBetRequest{
			Account: fmt.Sprintf("acct-%d", i), Side: "A", BetPrice: 6, ContractAmount: 1,
		})
	}
	env.do(t, http.MethodPost, "/bets/2/take", dto.TakeBetRequest{Account: "bob"})

	rec := env.do(t, http.MethodGet, "/bets?state=OPEN_B", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.BetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bets, 2)

	rec = env.do(t, http.MethodGet, "/bets?state=MATCHED", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bets, 1)
	require.Equal(t, int64(2), list.Bets[0].BetID)

	rec = env.do(t, http.MethodGet, "/bets?state=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOracleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/oracle/requests/score", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reqResp dto.OracleRequestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqResp))
	require.NotEmpty(t, reqResp.RequestID)
	require.Equal(t, "score", reqResp.Kind)

	require.NoError(t, env.gw.FulfillScore(context.Background(), reqResp.RequestID, 3, 1, time.Now().UTC()))

	rec = env.do(t, http.MethodGet, "/oracle/game", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap gateway.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, int64(3), snap.HomeScore)
	require.Equal(t, int64(1), snap.AwayScore)

	rec = env.do(t, http.MethodGet, "/oracle/requests/score", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
