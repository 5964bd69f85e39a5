package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackMessage is shown when a failed response carries no usable detail.
const FallbackMessage = "An unknown error occurred."

// ErrUploadInProgress is returned by Submit while another submission from
// the same controller has not finished.
var ErrUploadInProgress = errors.New("an upload is already in progress")

// ValidationError is a local rejection: nothing was sent.
type ValidationError struct {
	Reason string
	Limit  int64 // size ceiling, set when the file was too large
	Size   int64
}

func (e *ValidationError) Error() string { return e.Reason }

// UploadError is a failed POST: either a non-2xx response, in which case
// StatusCode is set and Message comes from the body's detail field, or a
// transport failure carried in Err.
type UploadError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upload failed: %s", e.Message)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DisplayText is the inline text written to the error region for err.
func DisplayText(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Error: " + ve.Reason
	}
	var ue *UploadError
	if errors.As(err, &ue) {
		return "Error: " + ue.Message
	}
	return "Error: " + err.Error()
}

// detailMessage extracts "detail" from an error body. Plain strings are
// used as-is; a list of validation items ({"msg": ...}) is joined.
func detailMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return FallbackMessage
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return FallbackMessage
		}
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return FallbackMessage
}
