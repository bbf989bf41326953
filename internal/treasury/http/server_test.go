package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/treasury/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/treasury/repo"
)

// memRepo reproduz em memória a semântica do repo de banco: saldos por
// owner, custódia do engine e idempotência de transferência por external_ref
type memRepo struct {
	balances  map[string]int64
	transfers map[string]string // external_ref -> transfer id
	nextID    int
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[string]int64), transfers: make(map[string]string)}
}

func (m *memRepo) GetOrCreateAccount(_ context.Context, owner string) (string, int64, error) {
	return "acct-" + owner, m.balances[owner], nil
}

func (m *memRepo) Deposit(_ context.Context, owner string, amount int64, _ string) (string, int64, error) {
	m.balances[owner] += amount
	return "acct-" + owner, m.balances[owner], nil
}

func (m *memRepo) Withdraw(_ context.Context, owner string, amount int64, _ string) (string, int64, error) {
	if _, ok := m.balances[owner]; !ok {
		return "", 0, repo.ErrNotFound
	}
	if m.balances[owner] < amount {
		return "", 0, repo.ErrInsufficientFunds
	}
	m.balances[owner] -= amount
	return "acct-" + owner, m.balances[owner], nil
}

func (m *memRepo) Pull(_ context.Context, owner string, amount int64, ref string) (string, error) {
	return m.transfer(owner, repo.CustodyAccount, amount, ref)
}

func (m *memRepo) Push(_ context.Context, to string, amount int64, ref string) (string, error) {
	return m.transfer(repo.CustodyAccount, to, amount, ref)
}

func (m *memRepo) transfer(from, to string, amount int64, ref string) (string, error) {
	if id, ok := m.transfers[ref]; ok {
		return id, nil
	}
	if m.balances[from] < amount {
		return "", repo.ErrInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	m.nextID++
	id := fmt.Sprintf("t-%d", m.nextID)
	m.transfers[ref] = id
	return id, nil
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDepositAndGetAccount(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := do(t, h, http.MethodPost, "/treasury/deposit", dto.DepositRequest{
		Owner: "alice", AmountCents: 5000, ExternalRef: "dep-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var acc dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
	require.Equal(t, int64(5000), acc.BalanceCents)

	rec = do(t, h, http.MethodGet, "/treasury/accounts?owner=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
	require.Equal(t, "alice", acc.Owner)
	require.Equal(t, int64(5000), acc.BalanceCents)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	m := newMemRepo()
	h := NewServer(zap.NewNop(), m).Router()
	m.balances["alice"] = 100

	rec := do(t, h, http.MethodPost, "/treasury/withdraw", dto.WithdrawRequest{
		Owner: "alice", AmountCents: 500, ExternalRef: "wd-1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/treasury/withdraw", dto.WithdrawRequest{
		Owner: "nobody", AmountCents: 1, ExternalRef: "wd-2",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPullPushMovesFundsThroughCustody(t *testing.T) {
	m := newMemRepo()
	h := NewServer(zap.NewNop(), m).Router()
	m.balances["alice"] = 10000

	rec := do(t, h, http.MethodPost, "/treasury/pull", dto.PullRequest{
		Owner: "alice", AmountCents: 3000, ExternalRef: "bet-create:x",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(7000), m.balances["alice"])
	require.Equal(t, int64(3000), m.balances[repo.CustodyAccount])

	rec = do(t, h, http.MethodPost, "/treasury/push", dto.PushRequest{
		To: "bob", AmountCents: 3000, ExternalRef: "bet-payout:1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(0), m.balances[repo.CustodyAccount])
	require.Equal(t, int64(3000), m.balances["bob"])
}

func TestPullIsIdempotentByExternalRef(t *testing.T) {
	m := newMemRepo()
	h := NewServer(zap.NewNop(), m).Router()
	m.balances["alice"] = 10000

	body := dto.PullRequest{Owner: "alice", AmountCents: 3000, ExternalRef: "bet-create:x"}
	rec := do(t, h, http.MethodPost, "/treasury/pull", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var first dto.TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// repetir a mesma ref devolve a transferência original sem mover saldo
	rec = do(t, h, http.MethodPost, "/treasury/pull", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var second dto.TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, first.TransferID, second.TransferID)
	require.Equal(t, int64(7000), m.balances["alice"])
}

func TestPullWithoutFundsReturns409(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := do(t, h, http.MethodPost, "/treasury/pull", dto.PullRequest{
		Owner: "alice", AmountCents: 1, ExternalRef: "ref",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestBadPayloadsRejected(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	rec := do(t, h, http.MethodPost, "/treasury/deposit", dto.DepositRequest{Owner: "", AmountCents: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/treasury/pull", dto.PullRequest{Owner: "alice", AmountCents: 0, ExternalRef: "r"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/treasury/accounts", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
