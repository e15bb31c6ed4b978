package publishers

import (
	"errors"
	"time"

	"github.com/samvad-hq/sammi-go/pkg/sammi"
)

// Event reports the outcome of one dispatched batch entry.
type Event struct {
	EntryID      string            `json:"entry_id"`
	Request      string            `json:"request"`
	Descriptor   *sammi.Descriptor `json:"descriptor"`
	OK           bool              `json:"ok"`
	Value        any               `json:"value,omitempty"`
	Error        string            `json:"error,omitempty"`
	StatusCode   int               `json:"status_code,omitempty"`
	DispatchedAt time.Time         `json:"dispatched_at"`
}

// NewEvent constructs an Event for the given entry and result.
func NewEvent(entryID string, d *sammi.Descriptor, res sammi.Result) Event {
	evt := Event{
		EntryID:      entryID,
		Request:      d.Request(),
		Descriptor:   d,
		OK:           res.OK(),
		Value:        res.Value,
		DispatchedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		evt.Error = res.Err.Error()
		var reqErr *sammi.RequestError
		if errors.As(res.Err, &reqErr) {
			evt.StatusCode = reqErr.StatusCode
		}
	}
	return evt
}
