package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

type fakeRequestPublisher struct {
	requests []events.OracleRequest
	err      error
}

func (f *fakeRequestPublisher) PublishOracleRequest(_ context.Context, e events.OracleRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, e)
	return nil
}

func newGateway(t *testing.T) (*Gateway, *MemoryStore, *fakeRequestPublisher) {
	t.Helper()
	store := NewMemoryStore()
	publ := &fakeRequestPublisher{}
	return New(zap.NewNop(), store, publ, "GAME_001"), store, publ
}

func TestRequestScorePublishesAndReturnsID(t *testing.T) {
	g, _, publ := newGateway(t)
	ctx := context.Background()

	id, err := g.RequestScore(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, publ.requests, 1)
	require.Equal(t, id, publ.requests[0].RequestID)
	require.Equal(t, events.OracleKindScore, publ.requests[0].Kind)
	require.Equal(t, "GAME_001", publ.requests[0].GameID)
}

func TestRequestFailsWhenPublishFails(t *testing.T) {
	g, _, publ := newGateway(t)
	publ.err = errors.New("broker down")

	_, err := g.RequestScore(context.Background())
	require.Error(t, err)
}

func TestFulfillScoreAppliesExactlyOnce(t *testing.T) {
	g, _, _ := newGateway(t)
	ctx := context.Background()

	id, err := g.RequestScore(ctx)
	require.NoError(t, err)

	at := time.Now().UTC()
	require.NoError(t, g.FulfillScore(ctx, id, 2, 1, at))

	snap, err := g.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), snap.HomeScore)
	require.Equal(t, int64(1), snap.AwayScore)
	require.Equal(t, id, snap.ScoreRequestID)
	require.Equal(t, at, snap.ScoreFulfilledAt)
	require.True(t, snap.ScoreKnown())
	require.False(t, snap.StatusKnown())

	// segundo fulfillment do mesmo id não tem efeito
	require.ErrorIs(t, g.FulfillScore(ctx, id, 9, 9, at.Add(time.Second)), ErrUnknownRequest)
	snap, _ = g.Snapshot(ctx)
	require.Equal(t, int64(2), snap.HomeScore)
}

func TestFulfillUnknownRequestRejected(t *testing.T) {
	g, _, _ := newGateway(t)
	ctx := context.Background()

	require.ErrorIs(t, g.FulfillScore(ctx, "nope", 1, 0, time.Now()), ErrUnknownRequest)
	require.ErrorIs(t, g.FulfillStatus(ctx, "nope", StatusLive, time.Now()), ErrUnknownRequest)
}

func TestFulfillCrossKindRejected(t *testing.T) {
	g, _, _ := newGateway(t)
	ctx := context.Background()

	scoreID, err := g.RequestScore(ctx)
	require.NoError(t, err)

	// responder uma requisição de placar pelo canal de status não aplica nada
	require.ErrorIs(t, g.FulfillStatus(ctx, scoreID, StatusFullTime, time.Now()), ErrUnknownRequest)

	snap, _ := g.Snapshot(ctx)
	require.Equal(t, StatusUnknown, snap.Status)
	require.False(t, snap.StatusKnown())
}

func TestChannelsAreIndependent(t *testing.T) {
	g, _, _ := newGateway(t)
	ctx := context.Background()

	scoreID, _ := g.RequestScore(ctx)
	statusID, _ := g.RequestStatus(ctx)

	// fulfillments chegam em qualquer ordem
	require.NoError(t, g.FulfillStatus(ctx, statusID, StatusFullTime, time.Now()))
	require.NoError(t, g.FulfillScore(ctx, scoreID, 3, 0, time.Now()))

	snap, _ := g.Snapshot(ctx)
	require.Equal(t, StatusFullTime, snap.Status)
	require.Equal(t, int64(3), snap.HomeScore)
	require.Equal(t, scoreID, snap.ScoreRequestID)
	require.Equal(t, statusID, snap.StatusRequestID)
}

func TestSupersededFulfillmentDoesNotBecomeLatest(t *testing.T) {
	g, _, _ := newGateway(t)
	ctx := context.Background()

	first, _ := g.RequestScore(ctx)
	second, _ := g.RequestScore(ctx)

	// resposta atrasada da primeira requisição: consumida, mas o valor
	// corrente fica com a requisição mais recente
	require.NoError(t, g.FulfillScore(ctx, first, 1, 0, time.Now()))
	snap, _ := g.Snapshot(ctx)
	require.Empty(t, snap.ScoreRequestID)
	require.False(t, snap.ScoreKnown())

	require.NoError(t, g.FulfillScore(ctx, second, 2, 2, time.Now()))
	snap, _ = g.Snapshot(ctx)
	require.Equal(t, second, snap.ScoreRequestID)
	require.Equal(t, int64(2), snap.HomeScore)
}

func TestSnapshotZeroBeforeAnyFulfillment(t *testing.T) {
	g, _, _ := newGateway(t)

	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "GAME_001", snap.GameID)
	require.Equal(t, StatusUnknown, snap.Status)
	require.Zero(t, snap.HomeScore)
	require.False(t, snap.FreshSince(time.Now().Add(-time.Hour)))
}

func TestFreshSinceRequiresBothChannels(t *testing.T) {
	base := time.Now().UTC()
	snap := Snapshot{
		GameID:            "GAME_001",
		ScoreFulfilledAt:  base.Add(time.Minute),
		StatusFulfilledAt: base.Add(time.Minute),
	}
	require.True(t, snap.FreshSince(base))

	// um canal defasado derruba o join
	snap.ScoreFulfilledAt = base.Add(-time.Minute)
	require.False(t, snap.FreshSince(base))

	// canal nunca respondido idem
	snap.ScoreFulfilledAt = time.Time{}
	require.False(t, snap.FreshSince(base))

	// fulfillment no instante exato conta como fresco
	snap.ScoreFulfilledAt = base
	snap.StatusFulfilledAt = base
	require.True(t, snap.FreshSince(base))
}
