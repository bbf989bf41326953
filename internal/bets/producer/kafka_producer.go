package producer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos observáveis do bets-service.
// Eventos de aposta são chaveados pelo bet id para manter a ordem por
// aposta dentro da partição; requisições de oráculo pelo request id.
type KafkaPublisher struct {
	BetWriter    *kafka.Writer
	OracleWriter *kafka.Writer
}

func NewKafkaPublisher(betWriter, oracleWriter *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{BetWriter: betWriter, OracleWriter: oracleWriter}
}

func (p *KafkaPublisher) PublishBetEvent(ctx context.Context, e events.BetEvent) error {
	b, _ := json.Marshal(e)
	key := p.betKey(e)
	return p.BetWriter.WriteMessages(ctx, kafka.Message{Key: key, Value: b})
}

func (p *KafkaPublisher) PublishOracleRequest(ctx context.Context, e events.OracleRequest) error {
	b, _ := json.Marshal(e)
	return p.OracleWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.RequestID), Value: b})
}

func (p *KafkaPublisher) betKey(e events.BetEvent) []byte {
	var id int64
	switch {
	case e.BetCreated != nil:
		id = e.BetCreated.BetID
	case e.BetTaken != nil:
		id = e.BetTaken.BetID
	case e.BetCanceled != nil:
		id = e.BetCanceled.BetID
	case e.BetExecuted != nil:
		id = e.BetExecuted.BetID
	case e.StakeTransferred != nil:
		id = e.StakeTransferred.BetID
	case e.StakeReturned != nil:
		id = e.StakeReturned.BetID
	case e.FeeTransferred != nil:
		id = e.FeeTransferred.BetID
	}
	return []byte(strconv.FormatInt(id, 10))
}
