package dto

type AccountResponse struct {
	Owner        string `json:"owner"`
	AccountID    string `json:"account_id"`
	BalanceCents int64  `json:"balance_cents"`
}

type DepositRequest struct {
	Owner       string `json:"owner"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type WithdrawRequest struct {
	Owner       string `json:"owner"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type PullRequest struct {
	Owner       string `json:"owner"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type PushRequest struct {
	To          string `json:"to"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"` // "OK"
}
