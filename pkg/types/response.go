package types

// Envelope is the wire shape shared by every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Status  int    `json:"status"`
}

// FieldErrors maps a json field name to its validation message.
type FieldErrors map[string]string

// ErrorData is placed in Envelope.Data for failed requests.
type ErrorData struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
