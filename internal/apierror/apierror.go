// Package apierror holds the JSON error envelopes returned by the HTTP API.
package apierror

// Stable machine-readable codes carried in APIError.Code.
const (
	CodeNotFound           = "not_found"
	CodeInvalidRequest     = "invalid_request"
	CodeCreditRefused      = "credit_refused"
	CodeReceiptUnavailable = "receipt_unavailable"
	CodeProcessingFailed   = "processing_failed"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeRateLimited        = "rate_limited"
	CodeMethodNotAllowed   = "method_not_allowed"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode attaches a stable machine-readable code, e.g. CodeCreditRefused.
func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Code: CodeInvalidRequest, Fields: fields}
}
