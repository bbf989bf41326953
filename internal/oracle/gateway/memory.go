package gateway

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implementa Store em memória, para testes e standalone
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]PendingRequest
	// request id mais recente emitido por canal, por jogo
	lastIssued map[string]map[string]string
	latest     map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending:    make(map[string]PendingRequest),
		lastIssued: make(map[string]map[string]string),
		latest:     make(map[string]Snapshot),
	}
}

func (m *MemoryStore) InsertPending(_ context.Context, req PendingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending[req.ID] = req
	byKind, ok := m.lastIssued[req.GameID]
	if !ok {
		byKind = make(map[string]string)
		m.lastIssued[req.GameID] = byKind
	}
	byKind[req.Kind] = req.ID
	return nil
}

func (m *MemoryStore) ConsumePending(_ context.Context, requestID string) (PendingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.pending[requestID]
	if !ok {
		return PendingRequest{}, ErrUnknownRequest
	}
	delete(m.pending, requestID)
	return req, nil
}

func (m *MemoryStore) RecordScore(_ context.Context, gameID, requestID string, home, away int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Fulfillment de um request superado é consumido mas não vira "latest"
	if m.lastIssued[gameID]["score"] != requestID {
		return nil
	}
	snap := m.latest[gameID]
	snap.GameID = gameID
	snap.HomeScore = home
	snap.AwayScore = away
	snap.ScoreRequestID = requestID
	snap.ScoreFulfilledAt = at
	m.latest[gameID] = snap
	return nil
}

func (m *MemoryStore) RecordStatus(_ context.Context, gameID, requestID, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastIssued[gameID]["status"] != requestID {
		return nil
	}
	snap := m.latest[gameID]
	snap.GameID = gameID
	snap.Status = status
	snap.StatusRequestID = requestID
	snap.StatusFulfilledAt = at
	m.latest[gameID] = snap
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, gameID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.latest[gameID]
	snap.GameID = gameID
	return snap, nil
}
