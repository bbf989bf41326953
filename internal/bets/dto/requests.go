package dto

// CreateBetRequest cria uma aposta unilateral. O preço informado é o do
// lado criado; bet_price_other é opcional (modelo legado de ordem
// bilateral) e, quando presente, precisa complementar o preço à escala.
type CreateBetRequest struct {
	Account        string `json:"account"`
	Side           string `json:"side"` // "A" | "B"
	BetPrice       int64  `json:"bet_price"`
	BetPriceOther  *int64 `json:"bet_price_other,omitempty"`
	ContractAmount int64  `json:"contract_amount"`
}

type TakeBetRequest struct {
	Account string `json:"account"`
}

type CancelBetRequest struct {
	Account string `json:"account"`
	Side    string `json:"side"` // lado que o chamador está cancelando
}

type ExecuteBetRequest struct {
	Account string `json:"account"`
}
