package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/cache"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
	sharedkafka "github.com/radieske/p2p-wager-platform-poc/internal/shared/kafka"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// MessageReader é o subconjunto do kafka.Reader usado pelo relay
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Relay consome fulfillments do oráculo e aplica no gateway, com cache do
// snapshot resultante. Fulfillment de request desconhecido/já consumido é
// no-op e vai pra DLQ para inspeção.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Relay struct {
	Log     *zap.Logger
	Reader  MessageReader
	Gateway *gateway.Gateway
	Cache   *cache.SnapshotCache
	DLQ     *kafka.Writer

	OnConsumed func()             // métricas (counter++)
	OnApplied  func(kind string)  // métricas
	OnError    func(phase string) // métricas por fase
}

// Run inicia o loop principal de consumo e aplicação dos fulfillments
func (r *Relay) Run(ctx context.Context) error {
	for {
		m, err := r.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			r.Log.Warn("kafka read failed", zap.Error(err))
			r.errored("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if r.OnConsumed != nil {
			r.OnConsumed()
		}

		var ful events.OracleFulfillment
		if err := json.Unmarshal(m.Value, &ful); err != nil {
			r.Log.Warn("invalid fulfillment message", zap.Error(err))
			r.errored("decode")
			r.deadLetter(ctx, m)
			continue
		}

		if err := r.apply(ctx, ful); err != nil {
			if errors.Is(err, gateway.ErrUnknownRequest) {
				// Cada request id aceita exatamente um fulfillment;
				// repetições e ids desconhecidos não mudam nada
				r.Log.Warn("unknown oracle request",
					zap.String("request_id", ful.RequestID), zap.String("kind", ful.Kind))
				r.errored("unknown_request")
				r.deadLetter(ctx, m)
				continue
			}
			r.Log.Error("apply fulfillment failed",
				zap.String("request_id", ful.RequestID), zap.Error(err))
			r.errored("apply")
			continue
		}
		if r.OnApplied != nil {
			r.OnApplied(ful.Kind)
		}

		// Atualiza o cache com a visão nova; falha de cache não bloqueia,
		// o store continua sendo a fonte de verdade
		if r.Cache != nil {
			snap, err := r.Gateway.Snapshot(ctx)
			if err == nil {
				if cerr := r.Cache.Set(ctx, snap); cerr != nil {
					r.Log.Warn("snapshot cache set failed", zap.Error(cerr))
					r.errored("cache")
				}
			}
		}
	}
}

func (r *Relay) apply(ctx context.Context, ful events.OracleFulfillment) error {
	at := time.UnixMilli(ful.TsUnixMs).UTC()
	switch ful.Kind {
	case events.OracleKindScore:
		return r.Gateway.FulfillScore(ctx, ful.RequestID, ful.HomeScore, ful.AwayScore, at)
	case events.OracleKindStatus:
		return r.Gateway.FulfillStatus(ctx, ful.RequestID, ful.Status, at)
	default:
		return gateway.ErrUnknownRequest
	}
}

func (r *Relay) deadLetter(ctx context.Context, m kafka.Message) {
	if r.DLQ == nil {
		return
	}
	if err := sharedkafka.WriteJSON(ctx, r.DLQ, string(m.Key), m.Value); err != nil {
		r.Log.Error("dlq write failed", zap.Error(err))
	}
}

func (r *Relay) errored(phase string) {
	if r.OnError != nil {
		r.OnError(phase)
	}
}
