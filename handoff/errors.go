package handoff

import "errors"

// Kind classifies a protocol failure. Every kind is terminal for the current
// call; the client recovers by starting a new handoff.
type Kind int

const (
	KindMalformedState Kind = iota + 1
	KindUnknownHandoff
	KindVerificationFailed
	KindAlreadyFulfilled
	KindNotReady
	KindBindingMismatch
	KindUpstreamExchangeFailed
	KindCorruptedPayload
)

var kindNames = map[Kind]string{
	KindMalformedState:         "MalformedState",
	KindUnknownHandoff:         "UnknownHandoff",
	KindVerificationFailed:     "VerificationFailed",
	KindAlreadyFulfilled:       "AlreadyFulfilled",
	KindNotReady:               "NotReady",
	KindBindingMismatch:        "BindingMismatch",
	KindUpstreamExchangeFailed: "UpstreamExchangeFailed",
	KindCorruptedPayload:       "CorruptedPayload",
}

// kindMessages are safe to show to clients. Unknown and expired handoffs
// deliberately share one message.
var kindMessages = map[Kind]string{
	KindMalformedState:         "Malformed state parameter",
	KindUnknownHandoff:         "Unknown or expired handoff",
	KindVerificationFailed:     "State verification failed",
	KindAlreadyFulfilled:       "Handoff already fulfilled",
	KindNotReady:               "Handoff not ready",
	KindBindingMismatch:        "Client binding mismatch",
	KindUpstreamExchangeFailed: "Failed to exchange authorization code",
	KindCorruptedPayload:       "Corrupted payload",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Message is the client visible description of the kind.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "OAuth error"
}

// Error is the single protocol error type returned by Service. Store and
// other infrastructure failures are never wrapped in an Error.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the protocol kind of err, if it is a protocol error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
