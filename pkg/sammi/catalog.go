package sammi

import (
	"net/http"
	"sort"
)

// Method is the HTTP verb an operation is sent with.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// Operation names understood by the SAMMI API.
const (
	OpGetVariable         = "getVariable"
	OpGetDeckStatus       = "getDeckStatus"
	OpSetVariable         = "setVariable"
	OpDeleteVariable      = "deleteVariable"
	OpInsertArray         = "insertArray"
	OpDeleteArray         = "deleteArray"
	OpChangeDeckStatus    = "changeDeckStatus"
	OpTriggerButton       = "triggerButton"
	OpReleaseButton       = "releaseButton"
	OpModifyButton        = "modifyButton"
	OpAlertMessage        = "alertMessage"
	OpPopupMessage        = "popupMessage"
	OpNotificationMessage = "notificationMessage"
)

// catalog is never written after package initialization.
var catalog = map[string]Method{
	OpGetVariable:         MethodGet,
	OpGetDeckStatus:       MethodGet,
	OpSetVariable:         MethodPost,
	OpDeleteVariable:      MethodPost,
	OpInsertArray:         MethodPost,
	OpDeleteArray:         MethodPost,
	OpChangeDeckStatus:    MethodPost,
	OpTriggerButton:       MethodPost,
	OpReleaseButton:       MethodPost,
	OpModifyButton:        MethodPost,
	OpAlertMessage:        MethodPost,
	OpPopupMessage:        MethodPost,
	OpNotificationMessage: MethodPost,
}

// Lookup returns the transport method registered for an operation name.
func Lookup(name string) (Method, bool) {
	m, ok := catalog[name]
	return m, ok
}

// Operations returns every known operation name in lexical order.
func Operations() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
