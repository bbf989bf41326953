package feedsim

import (
	"math/rand"
	"sync"
)

// Status reproduz o vocabulário do feed real
const (
	StatusNotStarted = "NS"
	StatusLive       = "LIVE"
	StatusFullTime   = "FT"
)

// Game é a partida simulada que responde as requisições do oráculo.
// Progride NS -> LIVE -> FT; em LIVE o placar evolui aleatoriamente.
type Game struct {
	mu     sync.Mutex
	gameID string
	home   int64
	away   int64
	status string
	ticks  int
}

func NewGame(gameID string) *Game {
	return &Game{gameID: gameID, status: StatusNotStarted}
}

func (g *Game) ID() string { return g.gameID }

// Snapshot devolve o estado corrente da partida
func (g *Game) Snapshot() (home, away int64, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.home, g.away, g.status
}

// Advance avança a simulação um passo: kickoff, gols aleatórios, apito final
func (g *Game) Advance(rng *rand.Rand) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.status {
	case StatusNotStarted:
		g.status = StatusLive
	case StatusLive:
		g.ticks++
		if rng.Intn(100) < 30 {
			if rng.Intn(2) == 0 {
				g.home++
			} else {
				g.away++
			}
		}
		// ~6 ticks de jogo antes do apito final
		if g.ticks >= 6 {
			g.status = StatusFullTime
		}
	}
}

// SetScore força um placar (endpoint de demo)
func (g *Game) SetScore(home, away int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.home, g.away = home, away
}

// SetStatus força um status (endpoint de demo)
func (g *Game) SetStatus(status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = status
}
