package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory é a implementação em memória do Ledger, usada em testes e no modo
// standalone do bets-service. O contador nunca retrocede, mesmo após Clear.
type Memory struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*Bet
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, records: make(map[int64]*Bet)}
}

func (m *Memory) Append(_ context.Context, b *Bet) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.records[cp.ID] = &cp
	m.nextID++
	return cp.ID, nil
}

func (m *Memory) Get(_ context.Context, id int64) (*Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) Fill(_ context.Context, id int64, side Side, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	open, isOpen := b.OpenSide()
	if !isOpen || open != side {
		return ErrNotFound
	}
	if side == SideA {
		b.AccountA = account
	} else {
		b.AccountB = account
	}
	b.State = StateMatched
	return nil
}

func (m *Memory) Clear(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) List(_ context.Context, state State) ([]*Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Bet
	for _, b := range m.records {
		if b.State == state {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
