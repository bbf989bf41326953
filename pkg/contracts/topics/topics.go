package topics

const (
	// Ciclo de vida das apostas (criação, match, cancelamento, liquidação)
	BetEvents = "bet_events"

	// Oráculo: requisições enviadas ao provedor e fulfillments recebidos
	OracleRequests     = "oracle_requests"
	OracleFulfillments = "oracle_fulfillments"

	// DLQs
	OracleFulfillmentsDLQ = "oracle_fulfillments_dlq"
)
