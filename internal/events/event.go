package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// StatusEvent is a status update pushed by the upload server over the
// notification channel.
type StatusEvent struct {
	FileSize int64
	FileName string // empty when the server did not send one
	HasSize  bool
}

// TransportError reports a channel frame that could not be parsed into a
// StatusEvent. It is logged by the channel and never shown to the user.
type TransportError struct {
	Payload string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("invalid status event: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

var (
	errNegativeSize   = errors.New("file_size is negative")
	errFractionalSize = errors.New("file_size is not a whole number")
	errSizeOutOfRange = errors.New("file_size is out of range")
	errSizeNotNumber  = errors.New("file_size is not a number")
)

type wireEvent struct {
	FileSize json.RawMessage `json:"file_size"`
	FileName *string         `json:"file_name"`
}

// Parse decodes one text frame. A frame without file_size parses
// successfully with HasSize false.
func Parse(data []byte) (StatusEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return StatusEvent{}, &TransportError{Payload: string(data), Err: err}
	}
	var ev StatusEvent
	if w.FileName != nil {
		ev.FileName = *w.FileName
	}
	if len(w.FileSize) == 0 || string(w.FileSize) == "null" {
		return ev, nil
	}
	// Quoted numbers are not sizes.
	if c := w.FileSize[0]; c != '-' && (c < '0' || c > '9') {
		return StatusEvent{}, &TransportError{Payload: string(data), Err: errSizeNotNumber}
	}
	size, err := parseSize(json.Number(w.FileSize))
	if err != nil {
		return StatusEvent{}, &TransportError{Payload: string(data), Err: err}
	}
	ev.FileSize = size
	ev.HasSize = true
	return ev, nil
}

func parseSize(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, errNegativeSize
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("file_size %q: %w", n, err)
	}
	if f < 0 {
		return 0, errNegativeSize
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 {
		return 0, errSizeOutOfRange
	}
	if f != math.Trunc(f) {
		return 0, errFractionalSize
	}
	return int64(f), nil
}
