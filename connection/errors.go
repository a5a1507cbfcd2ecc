package connection

import (
	"errors"
	"fmt"
)

// TransportStatus mirrors the small set of RPC status codes the
// connection substrate cares about. Anything else is folded into
// StatusUnknown.
type TransportStatus int

const (
	StatusUnknown TransportStatus = iota
	StatusUnauthenticated
	StatusUnavailable
	StatusDeadlineExceeded
	StatusInvalidArgument
)

func (s TransportStatus) String() string {
	switch s {
	case StatusUnauthenticated:
		return "UNAUTHENTICATED"
	case StatusUnavailable:
		return "UNAVAILABLE"
	case StatusDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

// TransportError is an RPC-layer failure: a status code plus an optional
// human-readable detail. It carries no application semantics.
type TransportError struct {
	Status TransportStatus
	Detail string
}

func (e *TransportError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("connection: transport error: %s", e.Status)
	}
	return fmt.Sprintf("connection: transport error: %s: %s", e.Status, e.Detail)
}

// AttestationError wraps a failed attest() handshake.
type AttestationError struct {
	Err error
}

func (e *AttestationError) Error() string { return fmt.Sprintf("connection: attestation failed: %v", e.Err) }
func (e *AttestationError) Unwrap() error { return e.Err }

// ApplicationError is a server-returned domain error — one of the
// validator errors in package admission, or any other business-logic
// rejection. It is never retried.
type ApplicationError struct {
	Err error
}

func (e *ApplicationError) Error() string { return fmt.Sprintf("connection: application error: %v", e.Err) }
func (e *ApplicationError) Unwrap() error { return e.Err }

// IsTransient reports whether err is the kind of transport failure the
// retry wrappers should sleep-and-retry on. UNAUTHENTICATED is
// transient — attested_call already deattested as a side effect, so the
// next attempt re-attests. Attestation and application errors are never
// transient.
func IsTransient(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Status {
	case StatusUnauthenticated, StatusUnavailable, StatusDeadlineExceeded:
		return true
	default:
		return false
	}
}
