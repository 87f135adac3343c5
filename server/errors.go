package server

import "fmt"

// NotaryServerError is the error surface the HTTP layer returns to callers,
// distinct from the PRF core's *prf.Error: it covers mistakes the caller
// made before the core was ever entered.
type NotaryServerError struct {
	kind    string
	message string
}

func (e *NotaryServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// BadProverRequest covers replayed session ids, oversize transcript
// requests, and any other malformed caller input at /session or /notarize.
func BadProverRequest(format string, args ...any) *NotaryServerError {
	return &NotaryServerError{kind: "BadProverRequest", message: fmt.Sprintf(format, args...)}
}

// ConfigError covers a verifier configuration that was itself invalid, such
// as a missing bound message, independent of any particular caller request.
func ConfigError(format string, args ...any) *NotaryServerError {
	return &NotaryServerError{kind: "ConfigError", message: fmt.Sprintf(format, args...)}
}

func (e *NotaryServerError) IsBadProverRequest() bool { return e.kind == "BadProverRequest" }
func (e *NotaryServerError) IsConfigError() bool      { return e.kind == "ConfigError" }
