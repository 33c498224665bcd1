package validation

// Error is a user-facing input validation failure, safe to return verbatim
// in API responses.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(message string) error {
	return &Error{Message: message}
}
