package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tdto "github.com/radieske/p2p-wager-platform-poc/internal/bets/treasury/dto"
)

// Client fala com o treasury-service (value transfer adapter). O engine
// confia nos códigos de retorno: status >= 300 vira falha de transferência
// e nenhuma mutação de ledger acontece depois disso.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Pull puxa escrow do dono para a custódia do engine (transferFrom)
func (c *Client) Pull(ctx context.Context, owner string, amountCents int64, ref string) error {
	body, _ := json.Marshal(tdto.PullRequest{Owner: owner, AmountCents: amountCents, ExternalRef: ref})
	return c.post(ctx, "/treasury/pull", body)
}

// Push desembolsa da custódia para a conta destino (transfer)
func (c *Client) Push(ctx context.Context, to string, amountCents int64, ref string) error {
	body, _ := json.Marshal(tdto.PushRequest{To: to, AmountCents: amountCents, ExternalRef: ref})
	return c.post(ctx, "/treasury/push", body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("treasury %s http %d", path, res.StatusCode)
	}
	var out tdto.TransferResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return err
	}
	return nil
}
