package funding

// ExecutionMessage is the wire payload carried on the funding execution
// topic. The API gateway publishes one per created or retried request and
// the funding worker consumes them.
type ExecutionMessage struct {
	FundingRequestID string `json:"funding_request_id"`
	CorrelationID    string `json:"correlation_id,omitempty"`
}
