package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/bets/ledger"
	"github.com/radieske/p2p-wager-platform-poc/internal/oracle/gateway"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

// PriceScale é a constante de normalização dos preços implícitos.
// Os preços dos dois lados de uma aposta sempre somam PriceScale.
const PriceScale int64 = 10

// Treasury é o value transfer adapter: Pull puxa escrow do dono para a
// custódia do engine, Push desembolsa da custódia. O engine confia nos
// códigos de retorno e nunca mexe no ledger antes de checá-los.
type Treasury interface {
	Pull(ctx context.Context, owner string, amountCents int64, ref string) error
	Push(ctx context.Context, to string, amountCents int64, ref string) error
}

// OracleReader entrega a última visão conhecida do jogo. Pode estar
// defasada; as operações que dependem dela fazem o join de frescor.
type OracleReader interface {
	Snapshot(ctx context.Context) (gateway.Snapshot, error)
}

// Publisher emite os eventos observáveis do ciclo de vida das apostas
type Publisher interface {
	PublishBetEvent(ctx context.Context, e events.BetEvent) error
}

// Params são os parâmetros fixados no deploy (sem mutação em runtime)
type Params struct {
	GameID          string
	StakeAsset      string
	UnitValueCents  int64 // valor de 1 ponto de preço por contrato
	ExecutionFeeBps int64 // 0..10000, só em resultado decisivo
	FeeRecipient    string
}

// Engine é o núcleo de matching, escrow e liquidação. Todas as leituras e
// escritas de apostas passam pelo ledger; o engine não guarda cópia própria.
type Engine struct {
	log    *zap.Logger
	book   ledger.Ledger
	oracle OracleReader
	bank   Treasury
	publ   Publisher
	params Params
}

func New(log *zap.Logger, book ledger.Ledger, oracle OracleReader, bank Treasury, publ Publisher, params Params) *Engine {
	return &Engine{log: log, book: book, oracle: oracle, bank: bank, publ: publ, params: params}
}

// ValidatePricePair valida o par de preços do modelo legado de ordem
// bilateral: quando o chamador envia os dois preços, eles precisam somar
// a escala. O preço B é sempre derivável, então isso só rejeita payloads
// incoerentes antes de qualquer efeito.
func ValidatePricePair(priceA, priceB int64) error {
	if priceA+priceB != PriceScale {
		return ErrPricesMismatched
	}
	return nil
}

// stakeCents calcula o escrow de um lado: preço × contratos × unitValue
func (e *Engine) stakeCents(price, contracts int64) int64 {
	return price * contracts * e.params.UnitValueCents
}

// CreateBetA cria uma aposta unilateral com o lado A preenchido pelo
// chamador, fazendo escrow de price*contracts*unit. Nada é criado se o
// escrow falhar.
func (e *Engine) CreateBetA(ctx context.Context, account string, priceA, contracts int64) (*ledger.Bet, error) {
	return e.create(ctx, account, ledger.SideA, priceA, contracts)
}

// CreateBetB idem para o lado B; o preço informado é o do lado B e o
// registro guarda o complementar (preço do lado A).
func (e *Engine) CreateBetB(ctx context.Context, account string, priceB, contracts int64) (*ledger.Bet, error) {
	return e.create(ctx, account, ledger.SideB, priceB, contracts)
}

func (e *Engine) create(ctx context.Context, account string, side ledger.Side, price, contracts int64) (*ledger.Bet, error) {
	if account == "" || price <= 0 || price >= PriceScale || contracts <= 0 {
		return nil, ErrInvalidInput
	}

	stake := e.stakeCents(price, contracts)
	ref := "bet-create:" + uuid.NewString()
	if err := e.bank.Pull(ctx, account, stake, ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	bet := &ledger.Bet{
		GameID:         e.params.GameID,
		ContractAmount: contracts,
		CreatedAt:      time.Now().UTC(),
	}
	if side == ledger.SideA {
		bet.AccountA = account
		bet.BetPrice = price
		bet.State = ledger.StateOpenB
	} else {
		bet.AccountB = account
		bet.BetPrice = PriceScale - price
		bet.State = ledger.StateOpenA
	}

	id, err := e.book.Append(ctx, bet)
	if err != nil {
		// Escrow já saiu: devolve antes de reportar a falha
		if perr := e.bank.Push(ctx, account, stake, ref+":undo"); perr != nil {
			e.log.Error("escrow compensation failed",
				zap.String("account", account), zap.Int64("amount_cents", stake), zap.Error(perr))
		}
		return nil, fmt.Errorf("append bet: %w", err)
	}
	bet.ID = id

	e.emit(ctx, events.BetEvent{
		Type: events.TypeBetCreated,
		BetCreated: &events.BetCreated{
			BetID:          id,
			Side:           string(side),
			AccountA:       bet.AccountA,
			AccountB:       bet.AccountB,
			BetPriceA:      bet.PriceA(),
			BetPriceB:      bet.PriceB(PriceScale),
			ContractAmount: contracts,
		},
	})
	return bet, nil
}

// TakeBet preenche o lado vago de uma aposta aberta, fazendo escrow do
// stake complementar. Aposta casada/liquidada/inexistente falha NotFound.
func (e *Engine) TakeBet(ctx context.Context, account string, betID int64) (*ledger.Bet, error) {
	if account == "" {
		return nil, ErrInvalidInput
	}
	bet, err := e.book.Get(ctx, betID)
	if err != nil {
		return nil, e.mapLedgerErr(err)
	}
	side, open := bet.OpenSide()
	if !open {
		return nil, ErrNotFound
	}

	var stake int64
	if side == ledger.SideA {
		stake = e.stakeCents(bet.PriceA(), bet.ContractAmount)
	} else {
		stake = e.stakeCents(bet.PriceB(PriceScale), bet.ContractAmount)
	}

	ref := fmt.Sprintf("bet-take:%d:%s", betID, side)
	if err := e.bank.Pull(ctx, account, stake, ref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := e.book.Fill(ctx, betID, side, account); err != nil {
		if perr := e.bank.Push(ctx, account, stake, ref+":undo"); perr != nil {
			e.log.Error("escrow compensation failed",
				zap.String("account", account), zap.Int64("amount_cents", stake), zap.Error(perr))
		}
		return nil, e.mapLedgerErr(err)
	}

	if side == ledger.SideA {
		bet.AccountA = account
	} else {
		bet.AccountB = account
	}
	bet.State = ledger.StateMatched

	e.emit(ctx, events.BetEvent{
		Type: events.TypeBetTaken,
		BetTaken: &events.BetTaken{
			BetID:          betID,
			AccountA:       bet.AccountA,
			AccountB:       bet.AccountB,
			BetPriceA:      bet.PriceA(),
			BetPriceB:      bet.PriceB(PriceScale),
			ContractAmount: bet.ContractAmount,
		},
	})
	return bet, nil
}

// CancelBetA desfaz a posição do lado A. Só vale enquanto o oráculo
// reporta "NS"; uma aposta casada recria o lado B como oferta nova.
func (e *Engine) CancelBetA(ctx context.Context, account string, betID int64) error {
	return e.cancel(ctx, account, ledger.SideA, betID)
}

// CancelBetB idem para o lado B
func (e *Engine) CancelBetB(ctx context.Context, account string, betID int64) error {
	return e.cancel(ctx, account, ledger.SideB, betID)
}

func (e *Engine) cancel(ctx context.Context, account string, side ledger.Side, betID int64) error {
	bet, err := e.book.Get(ctx, betID)
	if err != nil {
		return e.mapLedgerErr(err)
	}

	// O chamador precisa ser o dono do lado que está cancelando; um lado
	// que não é dele simplesmente não existe sob esse id
	var owner string
	if side == ledger.SideA {
		owner = bet.AccountA
	} else {
		owner = bet.AccountB
	}
	if owner == "" || owner != account {
		return ErrNotFound
	}

	// Direito pré-jogo apenas: depois do kickoff o cancelamento viraria
	// opção gratuita contra informação nova
	snap, err := e.oracle.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("oracle snapshot: %w", err)
	}
	if snap.Status != gateway.StatusNotStarted {
		return ErrGameStarted
	}

	var price int64
	if side == ledger.SideA {
		price = bet.PriceA()
	} else {
		price = bet.PriceB(PriceScale)
	}
	refund := e.stakeCents(price, bet.ContractAmount)

	ref := fmt.Sprintf("bet-cancel:%d:%s", betID, side)
	if err := e.bank.Push(ctx, account, refund, ref); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	matched := bet.State == ledger.StateMatched
	if err := e.book.Clear(ctx, betID); err != nil {
		return e.mapLedgerErr(err)
	}

	canceled := events.BetCanceled{
		BetID:          betID,
		Account:        account,
		BetPrice:       price,
		ContractAmount: bet.ContractAmount,
		RefundCents:    refund,
	}

	if !matched {
		e.emit(ctx, events.BetEvent{Type: events.TypeBetCanceled, BetCanceled: &canceled})
		return nil
	}

	// Aposta casada: o outro lado volta ao pool de ofertas com um id novo,
	// no preço complementar e mesma quantidade de contratos. Nunca reusa o
	// id antigo, para não confundir consumidores do log de eventos.
	relisted := &ledger.Bet{
		GameID:         bet.GameID,
		BetPrice:       bet.BetPrice,
		ContractAmount: bet.ContractAmount,
		CreatedAt:      time.Now().UTC(),
	}
	var counterSide ledger.Side
	if side == ledger.SideA {
		relisted.AccountB = bet.AccountB
		relisted.State = ledger.StateOpenA
		counterSide = ledger.SideB
	} else {
		relisted.AccountA = bet.AccountA
		relisted.State = ledger.StateOpenB
		counterSide = ledger.SideA
	}
	newID, err := e.book.Append(ctx, relisted)
	if err != nil {
		// O reembolso já foi feito e o registro original já saiu; a outra
		// parte não pode ficar sem posição. Erro alto e ruidoso.
		e.log.Error("relist after matched cancel failed",
			zap.Int64("bet_id", betID), zap.Error(err))
		return fmt.Errorf("relist counterparty: %w", err)
	}
	relisted.ID = newID
	canceled.RelistedBetID = newID

	e.emit(ctx, events.BetEvent{Type: events.TypeBetCanceled, BetCanceled: &canceled})
	e.emit(ctx, events.BetEvent{
		Type: events.TypeBetCreated,
		BetCreated: &events.BetCreated{
			BetID:          newID,
			Side:           string(counterSide),
			AccountA:       relisted.AccountA,
			AccountB:       relisted.AccountB,
			BetPriceA:      relisted.PriceA(),
			BetPriceB:      relisted.PriceB(PriceScale),
			ContractAmount: relisted.ContractAmount,
		},
	})
	return nil
}

// ExecuteBet liquida uma aposta casada depois do fim do jogo. Vitória do
// mandante paga o lado A, do visitante o lado B; empate devolve os stakes
// originais sem taxa. Só o vencedor (ou, no empate, uma das partes) pode
// disparar a liquidação — é o incentivo de quem tem dinheiro a receber.
func (e *Engine) ExecuteBet(ctx context.Context, account string, betID int64) error {
	bet, err := e.book.Get(ctx, betID)
	if err != nil {
		return e.mapLedgerErr(err)
	}
	if bet.State != ledger.StateMatched {
		return ErrNotFound
	}

	snap, err := e.oracle.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("oracle snapshot: %w", err)
	}
	// Join de frescor: status FT de um fulfillment anterior à criação da
	// aposta pode se referir a outro momento do feed; exige placar E status
	// observados depois da criação
	if !snap.FreshSince(bet.CreatedAt) {
		return ErrStaleOracle
	}
	if snap.Status != gateway.StatusFullTime {
		return ErrGameNotFinished
	}

	stakeA := e.stakeCents(bet.PriceA(), bet.ContractAmount)
	stakeB := e.stakeCents(bet.PriceB(PriceScale), bet.ContractAmount)

	if snap.HomeScore == snap.AwayScore {
		return e.settleDraw(ctx, account, bet, stakeA, stakeB)
	}

	winner, loser := bet.AccountA, bet.AccountB
	winnerPrice, loserPrice := bet.PriceA(), bet.PriceB(PriceScale)
	if snap.AwayScore > snap.HomeScore {
		winner, loser = bet.AccountB, bet.AccountA
		winnerPrice, loserPrice = bet.PriceB(PriceScale), bet.PriceA()
	}
	if account != winner {
		return ErrNotWinner
	}

	pot := stakeA + stakeB
	fee := pot * e.params.ExecutionFeeBps / 10000

	if fee > 0 {
		if err := e.bank.Push(ctx, e.params.FeeRecipient, fee, fmt.Sprintf("bet-fee:%d", betID)); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	if err := e.bank.Push(ctx, winner, pot-fee, fmt.Sprintf("bet-payout:%d", betID)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := e.book.Clear(ctx, betID); err != nil {
		// Fundos já saíram; um segundo execute cairia em NotFound só depois
		// do clear, então isso precisa aparecer alto no log
		e.log.Error("clear after payout failed", zap.Int64("bet_id", betID), zap.Error(err))
		return e.mapLedgerErr(err)
	}

	// Ordem dos eventos: taxa (se houve), stake, execução
	if fee > 0 {
		e.emit(ctx, events.BetEvent{
			Type: events.TypeFeeTransferred,
			FeeTransferred: &events.FeeTransferred{
				BetID: betID, Recipient: e.params.FeeRecipient, AmountCents: fee,
			},
		})
	}
	e.emit(ctx, events.BetEvent{
		Type: events.TypeStakeTransferred,
		StakeTransferred: &events.StakeTransferred{
			BetID: betID, To: winner, Asset: e.params.StakeAsset, AmountCents: pot - fee,
		},
	})
	e.emit(ctx, events.BetEvent{
		Type: events.TypeBetExecuted,
		BetExecuted: &events.BetExecuted{
			BetID:          betID,
			Winner:         winner,
			Loser:          loser,
			WinnerPrice:    winnerPrice,
			LoserPrice:     loserPrice,
			ContractAmount: bet.ContractAmount,
		},
	})
	return nil
}

// settleDraw devolve a cada parte exatamente o stake original, sem taxa
func (e *Engine) settleDraw(ctx context.Context, account string, bet *ledger.Bet, stakeA, stakeB int64) error {
	if account != bet.AccountA && account != bet.AccountB {
		return ErrNotWinner
	}

	if err := e.bank.Push(ctx, bet.AccountA, stakeA, fmt.Sprintf("bet-draw:%d:A", bet.ID)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.bank.Push(ctx, bet.AccountB, stakeB, fmt.Sprintf("bet-draw:%d:B", bet.ID)); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := e.book.Clear(ctx, bet.ID); err != nil {
		e.log.Error("clear after draw refund failed", zap.Int64("bet_id", bet.ID), zap.Error(err))
		return e.mapLedgerErr(err)
	}

	e.emit(ctx, events.BetEvent{
		Type: events.TypeStakeReturned,
		StakeReturned: &events.StakeReturned{
			BetID:        bet.ID,
			AccountA:     bet.AccountA,
			AccountB:     bet.AccountB,
			Asset:        e.params.StakeAsset,
			AmountACents: stakeA,
			AmountBCents: stakeB,
		},
	})
	return nil
}

// GetBet expõe a leitura do ledger para a API
func (e *Engine) GetBet(ctx context.Context, betID int64) (*ledger.Bet, error) {
	bet, err := e.book.Get(ctx, betID)
	if err != nil {
		return nil, e.mapLedgerErr(err)
	}
	return bet, nil
}

// ListBets lista as apostas num estado, para UI/indexação
func (e *Engine) ListBets(ctx context.Context, state ledger.State) ([]*ledger.Bet, error) {
	return e.book.List(ctx, state)
}

func (e *Engine) mapLedgerErr(err error) error {
	if errors.Is(err, ledger.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// emit publica o evento com timestamp; falha de publicação não desfaz a
// operação (o ledger é a fonte de verdade), só loga
func (e *Engine) emit(ctx context.Context, ev events.BetEvent) {
	ev.GameID = e.params.GameID
	ev.TsUnixMs = time.Now().UnixMilli()
	if err := e.publ.PublishBetEvent(ctx, ev); err != nil {
		e.log.Warn("bet event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
