package events

const (
	OracleKindScore  = "score"
	OracleKindStatus = "status"
)

// Requisição fire-and-forget enviada à rede provedora de dados.
// Cada requisição deve receber exatamente um fulfillment com o mesmo request_id.
type OracleRequest struct {
	RequestID string `json:"request_id"`
	GameID    string `json:"game_id"`
	Kind      string `json:"kind"` // "score" | "status"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// Fulfillment assíncrono vindo do provedor. Não há garantia de ordem
// entre fulfillments de score e de status.
type OracleFulfillment struct {
	RequestID string `json:"request_id"`
	GameID    string `json:"game_id"`
	Kind      string `json:"kind"`
	HomeScore int64  `json:"home_score,omitempty"`
	AwayScore int64  `json:"away_score,omitempty"`
	Status    string `json:"status,omitempty"` // "NS" | "LIVE" | "FT"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
