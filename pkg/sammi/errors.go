package sammi

import (
	"errors"
	"fmt"
)

// ErrorKind categorises why a request produced no payload.
type ErrorKind int

const (
	// KindInvalidPort means the client port failed validation before sending.
	KindInvalidPort ErrorKind = iota
	// KindUnknownRequest means the descriptor named no known operation.
	KindUnknownRequest
	// KindEncode means the descriptor could not be serialized.
	KindEncode
	// KindTransport means the HTTP round trip itself failed.
	KindTransport
	// KindStatus means SAMMI answered with a non-2xx status.
	KindStatus
	// KindDecode means a 2xx body was not valid JSON.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidPort:
		return "invalid port"
	case KindUnknownRequest:
		return "unknown request"
	case KindEncode:
		return "encode"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "http status"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// RequestError is the failure carried by a Result.
type RequestError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int    // set for KindStatus
	Status     string // status text, set for KindStatus
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// userFacing reports whether the message is meant to be shown to the caller as-is.
func (e *RequestError) userFacing() bool {
	return e.Kind == KindInvalidPort || e.Kind == KindUnknownRequest
}

// Is matches a RequestError target of the same Kind, so the sentinel below
// can be used with errors.Is.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	return ok && t.Kind == e.Kind
}

const msgRequestNotRecognized = "Request type not recognized!"

// ErrRequestNotRecognized matches, via errors.Is, the error returned for
// descriptors whose request field is not in the catalog. It is only a
// comparison target; returned errors are built fresh and never share it.
var ErrRequestNotRecognized error = &RequestError{
	Kind:    KindUnknownRequest,
	Message: msgRequestNotRecognized,
}

func newUnknownRequestError() *RequestError {
	return &RequestError{Kind: KindUnknownRequest, Message: msgRequestNotRecognized}
}

func newInvalidPortError(port int) *RequestError {
	return &RequestError{
		Kind:    KindInvalidPort,
		Message: fmt.Sprintf("Invalid port %d: port must be a number between %d and %d", port, minPort, maxPort),
	}
}

// IsKind reports whether err is a RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == kind
	}
	return false
}
