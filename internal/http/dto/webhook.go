package dto

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WebhookResponse is the body of every POST /webhook reply. Meta only looks
// at the status code; the body is for operators.
type WebhookResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Events    int    `json:"events,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Enqueued  int    `json:"enqueued,omitempty"`
}

type DebugResponse struct {
	Status         string `json:"status"`
	VerifyTokenSet bool   `json:"verify_token_set"`
	AppSecretSet   bool   `json:"app_secret_set"`
}

type TestEchoResponse struct {
	Status string `json:"status"`
	Bytes  int    `json:"bytes,omitempty"`
}
