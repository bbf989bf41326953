package dto

// Payloads do value transfer adapter (treasury-service)

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
