package ledger

import (
	"context"
	"errors"
	"time"
)

// Estado explícito da aposta. Para apostas abertas o estado nomeia o lado
// ainda vago; apostas liquidadas/canceladas são removidas da tabela, então
// "não existe" e "já liquidada" são indistinguíveis de propósito.
type State string

const (
	StateOpenA   State = "OPEN_A" // lado A vago (criada por createBetB)
	StateOpenB   State = "OPEN_B" // lado B vago (criada por createBetA)
	StateMatched State = "MATCHED"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

var ErrNotFound = errors.New("bet not found")

// Bet é o registro do livro de apostas. BetPrice é sempre o preço implícito
// do lado A; o preço do lado B é a diferença para a escala.
type Bet struct {
	ID             int64
	GameID         string
	AccountA       string
	AccountB       string
	BetPrice       int64
	ContractAmount int64
	State          State
	CreatedAt      time.Time
}

// PriceA retorna o preço implícito do lado A
func (b *Bet) PriceA() int64 { return b.BetPrice }

// PriceB retorna o preço complementar do lado B; os dois sempre somam a escala
func (b *Bet) PriceB(scale int64) int64 { return scale - b.BetPrice }

// OpenSide retorna o lado vago de uma aposta aberta
func (b *Bet) OpenSide() (Side, bool) {
	switch b.State {
	case StateOpenA:
		return SideA, true
	case StateOpenB:
		return SideB, true
	default:
		return "", false
	}
}

// Ledger é a única fonte de verdade sobre as apostas: append-only com ids
// monotônicos a partir de 1, nunca reusados. Limpar um id preserva as
// referências externas (eventos, links de UI) e faz o id voltar NotFound.
type Ledger interface {
	// Append insere uma aposta nova e devolve o id atribuído
	Append(ctx context.Context, b *Bet) (int64, error)
	// Get busca por id; ErrNotFound para id inexistente ou já limpo
	Get(ctx context.Context, id int64) (*Bet, error)
	// Fill preenche o lado vago e transiciona para MATCHED
	Fill(ctx context.Context, id int64, side Side, account string) error
	// Clear remove o registro; o id nunca é reusado
	Clear(ctx context.Context, id int64) error
	// List devolve as apostas num dado estado, em ordem de id
	List(ctx context.Context, state State) ([]*Bet, error)
}
