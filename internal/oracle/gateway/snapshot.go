package gateway

import (
	"context"
	"errors"
	"time"
)

// Status reportados pelo feed externo
const (
	StatusUnknown    = "" // nenhum fulfillment de status ainda
	StatusNotStarted = "NS"
	StatusLive       = "LIVE"
	StatusFullTime   = "FT" // terminal: placar final
)

var ErrUnknownRequest = errors.New("unknown oracle request")

// Snapshot é a visão mais recente do jogo, com proveniência: além dos
// valores, carrega o request id e o instante do fulfillment que produziu
// cada um, para que o chamador detecte staleness comparando identidades
// em vez de confiar em globals sempre-frescos.
type Snapshot struct {
	GameID string `json:"game_id"`

	HomeScore int64  `json:"home_score"`
	AwayScore int64  `json:"away_score"`
	Status    string `json:"status"`

	ScoreRequestID  string `json:"score_request_id,omitempty"`
	StatusRequestID string `json:"status_request_id,omitempty"`

	ScoreFulfilledAt  time.Time `json:"score_fulfilled_at,omitempty"`
	StatusFulfilledAt time.Time `json:"status_fulfilled_at,omitempty"`
}

// ScoreKnown indica se algum fulfillment de placar já chegou
func (s Snapshot) ScoreKnown() bool { return !s.ScoreFulfilledAt.IsZero() }

// StatusKnown indica se algum fulfillment de status já chegou
func (s Snapshot) StatusKnown() bool { return !s.StatusFulfilledAt.IsZero() }

// FreshSince indica se os dois canais (placar e status) têm fulfillment
// observado em t ou depois. É o join exigido na liquidação: "status diz FT"
// não basta se o fulfillment for anterior à criação da aposta.
func (s Snapshot) FreshSince(t time.Time) bool {
	if !s.ScoreKnown() || !s.StatusKnown() {
		return false
	}
	return !s.ScoreFulfilledAt.Before(t) && !s.StatusFulfilledAt.Before(t)
}

// PendingRequest é uma requisição emitida e ainda não respondida.
// Cada request id aceita exatamente um fulfillment.
type PendingRequest struct {
	ID          string
	GameID      string
	Kind        string // "score" | "status"
	RequestedAt time.Time
}

// Store guarda o estado do gateway: pendências chaveadas por request id,
// e uma linha por jogo com os últimos valores conhecidos de cada canal.
type Store interface {
	// InsertPending registra a pendência e marca o request id como o mais
	// recente emitido para o canal (kind) do jogo
	InsertPending(ctx context.Context, req PendingRequest) error
	// ConsumePending remove a pendência; ErrUnknownRequest para id
	// desconhecido ou já consumido
	ConsumePending(ctx context.Context, requestID string) (PendingRequest, error)
	// RecordScore grava o fulfillment de placar. Só sobrescreve os valores
	// correntes do jogo se o request id ainda for o mais recente do canal
	RecordScore(ctx context.Context, gameID, requestID string, home, away int64, at time.Time) error
	// RecordStatus idem, para o canal de status
	RecordStatus(ctx context.Context, gameID, requestID, status string, at time.Time) error
	// Latest devolve o snapshot corrente do jogo (zero-valued se nada chegou)
	Latest(ctx context.Context, gameID string) (Snapshot, error)
}
