package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAssignsMonotonicIDsFromOne(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id1, err := m.Append(ctx, &Bet{GameID: "g", BetPrice: 6, ContractAmount: 1, State: StateOpenB})
	require.NoError(t, err)
	require.Equal(t, int64(1), id1)

	id2, err := m.Append(ctx, &Bet{GameID: "g", BetPrice: 4, ContractAmount: 1, State: StateOpenA})
	require.NoError(t, err)
	require.Equal(t, int64(2), id2)

	// Clear não devolve o id pro pool
	require.NoError(t, m.Clear(ctx, id1))
	id3, err := m.Append(ctx, &Bet{GameID: "g", BetPrice: 5, ContractAmount: 1, State: StateOpenB})
	require.NoError(t, err)
	require.Equal(t, int64(3), id3)

	_, err = m.Get(ctx, id1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFillTransitionsOpenToMatched(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Append(ctx, &Bet{GameID: "g", AccountA: "alice", BetPrice: 6, ContractAmount: 1, State: StateOpenB})
	require.NoError(t, err)

	require.NoError(t, m.Fill(ctx, id, SideB, "bob"))

	b, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateMatched, b.State)
	require.Equal(t, "bob", b.AccountB)

	// preencher de novo (qualquer lado) não encontra aposta aberta
	require.ErrorIs(t, m.Fill(ctx, id, SideB, "carol"), ErrNotFound)
	require.ErrorIs(t, m.Fill(ctx, id, SideA, "carol"), ErrNotFound)
}

func TestFillWrongSideRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Append(ctx, &Bet{GameID: "g", AccountA: "alice", BetPrice: 6, ContractAmount: 1, State: StateOpenB})
	require.NoError(t, err)

	// o lado A já é da alice; só o lado B está vago
	require.ErrorIs(t, m.Fill(ctx, id, SideA, "bob"), ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, _ := m.Append(ctx, &Bet{GameID: "g", AccountA: "alice", BetPrice: 6, ContractAmount: 1, State: StateOpenB})

	b, _ := m.Get(ctx, id)
	b.AccountA = "mallory"

	again, _ := m.Get(ctx, id)
	require.Equal(t, "alice", again.AccountA)
}

func TestListFiltersByStateInIDOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Append(ctx, &Bet{GameID: "g", BetPrice: 6, ContractAmount: 1, State: StateOpenB})
	m.Append(ctx, &Bet{GameID: "g", BetPrice: 4, ContractAmount: 1, State: StateOpenA})
	m.Append(ctx, &Bet{GameID: "g", BetPrice: 5, ContractAmount: 1, State: StateOpenB})

	open, err := m.List(ctx, StateOpenB)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, int64(1), open[0].ID)
	require.Equal(t, int64(3), open[1].ID)

	matched, err := m.List(ctx, StateMatched)
	require.NoError(t, err)
	require.Empty(t, matched)
}

func TestPricesSumToScale(t *testing.T) {
	const scale = int64(10)
	b := &Bet{BetPrice: 7}
	require.Equal(t, int64(7), b.PriceA())
	require.Equal(t, int64(3), b.PriceB(scale))
	require.Equal(t, scale, b.PriceA()+b.PriceB(scale))
}

func TestOpenSide(t *testing.T) {
	b := &Bet{State: StateOpenA}
	side, open := b.OpenSide()
	require.True(t, open)
	require.Equal(t, SideA, side)

	b.State = StateOpenB
	side, open = b.OpenSide()
	require.True(t, open)
	require.Equal(t, SideB, side)

	b.State = StateMatched
	_, open = b.OpenSide()
	require.False(t, open)
}
