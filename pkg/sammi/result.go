package sammi

import "errors"

// Result is the outcome of SendRequest. Exactly one of Value or Err is meaningful.
type Result struct {
	// Value is the decoded response, with a top-level "data" field unwrapped.
	Value any
	Err   error
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Legacy flattens the result the way callers of the untyped API expect it:
// the payload on success, a descriptive string for input errors (unknown
// request, invalid port) and nil for every transport-level failure.
func (r Result) Legacy() any {
	if r.Err == nil {
		return r.Value
	}
	var reqErr *RequestError
	if errors.As(r.Err, &reqErr) && reqErr.userFacing() {
		return reqErr.Message
	}
	return nil
}
