package core

// Error codes for protocol-visible errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
