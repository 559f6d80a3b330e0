// internal/pipeline/completion-stream/scanner.go
package completionstream

import (
	"bufio"
	"io"
	"strings"
)

const maxScanTokenSize = 5 * 1024 * 1024 // 5MB

type event struct {
	Type string
	Data string
}

// eventScanner reassembles server-sent events from arbitrarily split reads.
type eventScanner struct {
	scanner *bufio.Scanner
	current event
}

func newEventScanner(r io.Reader) *eventScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	return &eventScanner{scanner: scanner}
}

// Next advances to the next complete event. A trailing event without its
// terminating blank line is discarded.
func (s *eventScanner) Next() bool {
	var (
		ev      event
		hasData bool
		lines   []string
	)
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if hasData {
				ev.Data = strings.Join(lines, "\n")
				s.current = ev
				return true
			}
			ev = event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Type = value
		case "data":
			lines = append(lines, value)
			hasData = true
		}
	}
	return false
}

func (s *eventScanner) Event() event {
	return s.current
}

func (s *eventScanner) Err() error {
	return s.scanner.Err()
}
