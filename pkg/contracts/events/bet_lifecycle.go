package events

// Eventos publicados no tópico "bet_events" para indexação off-chain/UI.
// Todo evento de criação/match carrega os dois preços implícitos (A e B),
// que sempre somam a escala de normalização.

const (
	TypeBetCreated       = "bet_created"
	TypeBetTaken         = "bet_taken"
	TypeBetCanceled      = "bet_canceled"
	TypeBetExecuted      = "bet_executed"
	TypeStakeTransferred = "stake_transferred"
	TypeStakeReturned    = "stake_returned"
	TypeFeeTransferred   = "fee_transferred"
)

// Envelope comum: permite multiplexar os tipos acima num único tópico.
type BetEvent struct {
	Type     string `json:"type"`
	GameID   string `json:"game_id"`
	TsUnixMs int64  `json:"ts_unix_ms"`

	BetCreated       *BetCreated       `json:"bet_created,omitempty"`
	BetTaken         *BetTaken         `json:"bet_taken,omitempty"`
	BetCanceled      *BetCanceled      `json:"bet_canceled,omitempty"`
	BetExecuted      *BetExecuted      `json:"bet_executed,omitempty"`
	StakeTransferred *StakeTransferred `json:"stake_transferred,omitempty"`
	StakeReturned    *StakeReturned    `json:"stake_returned,omitempty"`
	FeeTransferred   *FeeTransferred   `json:"fee_transferred,omitempty"`
}

type BetCreated struct {
	BetID          int64  `json:"bet_id"`
	Side           string `json:"side"` // "A" | "B": lado preenchido na criação
	AccountA       string `json:"account_a,omitempty"`
	AccountB       string `json:"account_b,omitempty"`
	BetPriceA      int64  `json:"bet_price_a"`
	BetPriceB      int64  `json:"bet_price_b"`
	ContractAmount int64  `json:"contract_amount"`
}

type BetTaken struct {
	BetID          int64  `json:"bet_id"`
	AccountA       string `json:"account_a"`
	AccountB       string `json:"account_b"`
	BetPriceA      int64  `json:"bet_price_a"`
	BetPriceB      int64  `json:"bet_price_b"`
	ContractAmount int64  `json:"contract_amount"`
}

type BetCanceled struct {
	BetID          int64  `json:"bet_id"`
	Account        string `json:"account"`
	BetPrice       int64  `json:"bet_price"` // preço do lado cancelado
	ContractAmount int64  `json:"contract_amount"`
	RefundCents    int64  `json:"refund_cents"`
	// Preenchido quando o cancelamento de uma aposta casada recria o outro lado
	RelistedBetID int64 `json:"relisted_bet_id,omitempty"`
}

type BetExecuted struct {
	BetID          int64  `json:"bet_id"`
	Winner         string `json:"winner"`
	Loser          string `json:"loser"`
	WinnerPrice    int64  `json:"winner_price"`
	LoserPrice     int64  `json:"loser_price"`
	ContractAmount int64  `json:"contract_amount"`
}

type StakeTransferred struct {
	BetID       int64  `json:"bet_id"`
	To          string `json:"to"`
	Asset       string `json:"asset"`
	AmountCents int64  `json:"amount_cents"`
}

// Devolução de stakes em caso de empate: cada parte recebe de volta
// exatamente o que depositou, sem taxa.
type StakeReturned struct {
	BetID        int64  `json:"bet_id"`
	AccountA     string `json:"account_a"`
	AccountB     string `json:"account_b"`
	Asset        string `json:"asset"`
	AmountACents int64  `json:"amount_a_cents"`
	AmountBCents int64  `json:"amount_b_cents"`
}

type FeeTransferred struct {
	BetID       int64  `json:"bet_id"`
	Recipient   string `json:"recipient"`
	AmountCents int64  `json:"amount_cents"`
}
