package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// RequestPublisher envia a requisição à rede provedora (fire-and-forget)
type RequestPublisher interface {
	PublishOracleRequest(ctx context.Context, e events.OracleRequest) error
}

// Gateway implementa a máquina de estados de requisição/fulfillment do
// oráculo: Idle -> Requested -> Fulfilled por canal, com exatamente um
// fulfillment aceito por request id. Não há timeout: requisição nunca
// respondida fica pendente até o operador re-requisitar.
type Gateway struct {
	log    *zap.Logger
	store  Store
	publ   RequestPublisher
	gameID string
}

func New(log *zap.Logger, store Store, publ RequestPublisher, gameID string) *Gateway {
	return &Gateway{log: log, store: store, publ: publ, gameID: gameID}
}

// RequestScore emite uma requisição de placar e devolve o request id
func (g *Gateway) RequestScore(ctx context.Context) (string, error) {
	return g.request(ctx, events.OracleKindScore)
}

// RequestStatus emite uma requisição de status e devolve o request id
func (g *Gateway) RequestStatus(ctx context.Context) (string, error) {
	return g.request(ctx, events.OracleKindStatus)
}

func (g *Gateway) request(ctx context.Context, kind string) (string, error) {
	req := PendingRequest{
		ID:          uuid.NewString(),
		GameID:      g.gameID,
		Kind:        kind,
		RequestedAt: time.Now().UTC(),
	}
	if err := g.store.InsertPending(ctx, req); err != nil {
		return "", fmt.Errorf("insert pending: %w", err)
	}
	err := g.publ.PublishOracleRequest(ctx, events.OracleRequest{
		RequestID: req.ID,
		GameID:    req.GameID,
		Kind:      kind,
		TsUnixMs:  req.RequestedAt.UnixMilli(),
	})
	if err != nil {
		// A pendência fica registrada mas nunca será respondida; quem
		// precisa do dado re-requisita. Não há rollback a fazer.
		g.log.Warn("oracle request publish failed",
			zap.String("request_id", req.ID), zap.String("kind", kind), zap.Error(err))
		return "", fmt.Errorf("publish oracle request: %w", err)
	}
	return req.ID, nil
}

// FulfillScore aplica o fulfillment de placar do request id informado.
// Um id desconhecido ou já consumido falha com ErrUnknownRequest sem
// nenhuma mudança de estado.
func (g *Gateway) FulfillScore(ctx context.Context, requestID string, home, away int64, at time.Time) error {
	req, err := g.store.ConsumePending(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Kind != events.OracleKindScore {
		return ErrUnknownRequest
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return g.store.RecordScore(ctx, req.GameID, requestID, home, away, at)
}

// FulfillStatus aplica o fulfillment de status do request id informado
func (g *Gateway) FulfillStatus(ctx context.Context, requestID, status string, at time.Time) error {
	req, err := g.store.ConsumePending(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Kind != events.OracleKindStatus {
		return ErrUnknownRequest
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return g.store.RecordStatus(ctx, req.GameID, requestID, status, at)
}

// Snapshot devolve a última visão conhecida do jogo. Pode estar defasada
// em relação a uma aposta específica; o chamador decide re-requisitar.
func (g *Gateway) Snapshot(ctx context.Context) (Snapshot, error) {
	return g.store.Latest(ctx, g.gameID)
}
