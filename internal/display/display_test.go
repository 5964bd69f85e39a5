package display_test

import (
	"sync"
	"testing"

	"github.com/zsprackett/uploadwatch/internal/display"
)

func TestState_RendersEveryMutation(t *testing.T) {
	var got []display.Snapshot
	s := display.NewState(func(snap display.Snapshot) { got = append(got, snap) })

	s.SetFile("report.pdf", "12 bytes")
	s.SetError("Error: boom")
	s.ClearError()

	if len(got) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(got))
	}
	if got[1].ErrorText != "Error: boom" || got[1].FileName != "report.pdf" {
		t.Errorf("second render: %+v", got[1])
	}
	if got[2].ErrorText != "" {
		t.Errorf("error should be cleared, got %q", got[2].ErrorText)
	}
}

func TestState_SetFileLeavesError(t *testing.T) {
	s := display.NewState(nil)
	s.SetError("Error: x")
	s.SetFile("a.bin", "1 bytes")

	snap := s.Snapshot()
	if snap.ErrorText != "Error: x" {
		t.Errorf("SetFile must not touch error text, got %q", snap.ErrorText)
	}
}

func TestState_SetRenderPublishesCurrent(t *testing.T) {
	s := display.NewState(nil)
	s.SetFile("a.bin", "1 bytes")

	var got display.Snapshot
	s.SetRender(func(snap display.Snapshot) { got = snap })
	if got.FileName != "a.bin" {
		t.Errorf("expected immediate render of current state, got %+v", got)
	}
}

func TestState_ConcurrentWriters(t *testing.T) {
	s := display.NewState(func(display.Snapshot) {})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetFile("a", "1 bytes")
		}()
		go func() {
			defer wg.Done()
			s.SetError("Error: e")
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	if snap.FileName != "a" || snap.ErrorText != "Error: e" {
		t.Errorf("got %+v", snap)
	}
}

func TestSnapshotLines(t *testing.T) {
	snap := display.Snapshot{FileName: "report.pdf", FileSizeText: "1,048,576 bytes"}
	lines := snap.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %v", lines)
	}
	if lines[0] != "File Name: report.pdf" || lines[1] != "File Size: 1,048,576 bytes" {
		t.Errorf("got %v", lines)
	}
	if (display.Snapshot{}).String() != "" {
		t.Error("empty snapshot should render nothing")
	}
}

func TestSizeFormatter(t *testing.T) {
	cases := []struct {
		locale string
		n      int64
		want   string
	}{
		{"", 1048576, "1,048,576 bytes"},
		{"en-US", 1048576, "1,048,576 bytes"},
		{"en-US", 999, "999 bytes"},
		{"en-US", 0, "0 bytes"},
		{"de-DE", 1048576, "1.048.576 bytes"},
	}
	for _, tc := range cases {
		f, err := display.NewSizeFormatter(tc.locale)
		if err != nil {
			t.Fatalf("NewSizeFormatter(%q): %v", tc.locale, err)
		}
		if got := f.Format(tc.n); got != tc.want {
			t.Errorf("Format(%d) under %q: got %q want %q", tc.n, tc.locale, got, tc.want)
		}
	}
}

func TestSizeFormatter_BadLocale(t *testing.T) {
	if _, err := display.NewSizeFormatter("not a locale!"); err == nil {
		t.Error("expected error for malformed locale")
	}
}
