// internal/pipeline/search-chat/models.go
package searchchat

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Input is the body of POST /search-chat.
type Input struct {
	Query       string `json:"query"`
	Level       string `json:"level,omitempty"`
	ResponseID  string `json:"responseId,omitempty"`
	Interaction string `json:"interaction,omitempty"`
	SafeSearch  Truthy `json:"safesearch,omitempty"`
	Location    string `json:"location,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Output is the response envelope. Status carries the real outcome.
type Output struct {
	ResponseID string `json:"responseId"`
	Response   string `json:"response"`
	Message    string `json:"message"`
	Status     int    `json:"status"`
}

// Truthy accepts any JSON value. false, 0, "", and null are false; everything
// else, including the string "false", is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = false
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = s != ""
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*t = f != 0
	default:
		*t = true
	}
	return nil
}

// Session states, used as a metric and span label.
const (
	stateNew        = "new_session"
	stateContinuing = "continuing"
)
