package dto

import "time"

type BetResponse struct {
	BetID          int64     `json:"bet_id"`
	GameID         string    `json:"game_id"`
	AccountA       string    `json:"account_a,omitempty"`
	AccountB       string    `json:"account_b,omitempty"`
	BetPriceA      int64     `json:"bet_price_a"`
	BetPriceB      int64     `json:"bet_price_b"`
	ContractAmount int64     `json:"contract_amount"`
	State          string    `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
}

type BetListResponse struct {
	Bets []BetResponse `json:"bets"`
}

type CancelBetResponse struct {
	Status string `json:"status"` // "CANCELED"
}

type ExecuteBetResponse struct {
	Status string `json:"status"` // "EXECUTED"
}

type OracleRequestResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
}
