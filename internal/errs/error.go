package errs

// Error pairs a sentinel kind with a message that is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

// E builds an *Error of the given kind.
func E(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// Message returns the client-facing message, falling back to the kind text.
func (e *Error) Message() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}
