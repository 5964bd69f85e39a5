package upload

import (
	"errors"
	"testing"
)

func TestDetailMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"detail":"Payload too large"}`, "Payload too large"},
		{`{"detail":"  "}`, FallbackMessage},
		{`{"detail":null}`, FallbackMessage},
		{`{"detail":42}`, FallbackMessage},
		{`{"detail":[{"msg":"a"},{"msg":"b"}]}`, "a; b"},
		{`{"detail":[{"loc":["x"]}]}`, FallbackMessage},
		{``, FallbackMessage},
		{`nope`, FallbackMessage},
	}
	for _, tc := range cases {
		if got := detailMessage([]byte(tc.body)); got != tc.want {
			t.Errorf("detailMessage(%q): got %q want %q", tc.body, got, tc.want)
		}
	}
}

func TestDisplayText(t *testing.T) {
	if got := DisplayText(&UploadError{StatusCode: 413, Message: "X"}); got != "Error: X" {
		t.Errorf("upload error: got %q", got)
	}
	if got := DisplayText(&ValidationError{Reason: "no file selected"}); got != "Error: no file selected" {
		t.Errorf("validation error: got %q", got)
	}
	if got := DisplayText(errors.New("plain")); got != "Error: plain" {
		t.Errorf("plain error: got %q", got)
	}
}

func TestUploadErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &UploadError{Message: inner.Error(), Err: inner}
	if !errors.Is(err, inner) {
		t.Error("UploadError should unwrap to the transport error")
	}
}
