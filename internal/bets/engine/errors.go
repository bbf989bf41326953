package engine

import "errors"

// Toda falha é atômica: nenhuma movimentação de escrow nem mutação do
// ledger acontece numa chamada que retorna erro. Nada é retentado aqui
// dentro; retry é responsabilidade do chamador/operador.
var (
	// Preço fora de (0, escala) ou quantidade de contratos não positiva
	ErrInvalidInput = errors.New("invalid input")
	// Aposta inexistente, já casada (para take), já liquidada ou limpa
	ErrNotFound = errors.New("bet not found")
	// O value transfer adapter recusou o pull/push (saldo/allowance)
	ErrTransferFailed = errors.New("transfer failed")
	// Cancelamento só é permitido enquanto o oráculo reporta "NS"
	ErrGameStarted = errors.New("game started, cannot cancel order")
	// executeBet chamado por quem não é o vencedor (nem parte, no empate)
	ErrNotWinner = errors.New("you are not the winner")
	// Par de preços do modelo legado de ordem bilateral não soma a escala
	ErrPricesMismatched = errors.New("prices do not sum to scale")
	// Jogo ainda não terminou segundo o oráculo
	ErrGameNotFinished = errors.New("game not finished")
	// Oráculo sem fulfillment de placar+status posterior à criação da aposta
	ErrStaleOracle = errors.New("oracle data is stale for this bet")
)
