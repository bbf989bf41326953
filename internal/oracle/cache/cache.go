package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
)

// SnapshotCache guarda no Redis a última visão conhecida de cada jogo,
// escrita pelo relay worker e lida pelo bets-service.
type SnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSnapshotCache(c *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot corrente de um jogo
func key(gameID string) string { return "oracle:game:" + gameID }

// Set armazena o snapshot do jogo com TTL definido
func (c *SnapshotCache) Set(ctx context.Context, snap gateway.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(snap.GameID), b, c.TTL).Err()
}

// Get busca o snapshot do jogo; ok=false em cache miss
func (c *SnapshotCache) Get(ctx context.Context, gameID string) (gateway.Snapshot, bool, error) {
	raw, err := c.Client.Get(ctx, key(gameID)).Bytes()
	if err == redis.Nil {
		return gateway.Snapshot{}, false, nil
	}
	if err != nil {
		return gateway.Snapshot{}, false, err
	}
	var snap gateway.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return gateway.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Reader lê o snapshot preferindo o cache, com fallback pro store.
// Cache indisponível não derruba a leitura: a fonte de verdade é o store.
type Reader struct {
	Cache  *SnapshotCache
	Store  gateway.Store
	GameID string
}

func (r *Reader) Snapshot(ctx context.Context) (gateway.Snapshot, error) {
	if r.Cache != nil {
		if snap, ok, err := r.Cache.Get(ctx, r.GameID); err == nil && ok {
			return snap, nil
		}
	}
	return r.Store.Latest(ctx, r.GameID)
}
