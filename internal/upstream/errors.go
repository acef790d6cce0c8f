package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoToken is returned when a successful authentication carries no access token.
var ErrNoToken = errors.New("no token received")

// Operations reported in StatusError.
const (
	OpLogin        = "login"
	OpAuthenticate = "authenticate"
	OpInventory    = "inventory"
)

// StatusError is a non-2xx reply from an upstream endpoint. Message is the
// server-provided error text, when the operation reads one.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// text is a JSON field read leniently: strings verbatim, null and false as
// empty, anything else as its JSON text.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}
	switch string(data) {
	case "null", "false":
		*t = ""
	default:
		*t = text(data)
	}
	return nil
}
