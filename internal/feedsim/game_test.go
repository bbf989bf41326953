package feedsim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGameProgressesToFullTime(t *testing.T) {
	g := NewGame("GAME_001")
	rng := rand.New(rand.NewSource(1))

	_, _, status := g.Snapshot()
	require.Equal(t, StatusNotStarted, status)

	g.Advance(rng)
	_, _, status = g.Snapshot()
	require.Equal(t, StatusLive, status)

	for i := 0; i < 10; i++ {
		g.Advance(rng)
	}
	home, away, status := g.Snapshot()
	require.Equal(t, StatusFullTime, status)
	require.GreaterOrEqual(t, home, int64(0))
	require.GreaterOrEqual(t, away, int64(0))

	// FT é terminal: avançar não muda mais nada
	h0, a0, _ := g.Snapshot()
	g.Advance(rng)
	h1, a1, status := g.Snapshot()
	require.Equal(t, StatusFullTime, status)
	require.Equal(t, h0, h1)
	require.Equal(t, a0, a1)
}

func TestForcedStateOverridesSimulation(t *testing.T) {
	g := NewGame("GAME_001")

	g.SetScore(3, 2)
	g.SetStatus(StatusFullTime)

	home, away, status := g.Snapshot()
	require.Equal(t, int64(3), home)
	require.Equal(t, int64(2), away)
	require.Equal(t, StatusFullTime, status)
}
