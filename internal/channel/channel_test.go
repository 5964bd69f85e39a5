package channel_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zsprackett/uploadwatch/internal/applog"
	"github.com/zsprackett/uploadwatch/internal/channel"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/display"
	"github.com/zsprackett/uploadwatch/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushServer upgrades /ws/{id} and writes frames in order, then waits for
// the client to hang up.
func pushServer(t *testing.T, wantID string, frames ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != wantID {
			http.Error(w, "unknown session", 404)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + id
}

type fixedName string

func (f fixedName) ResolveName(events.StatusEvent) string { return string(f) }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type memRecorder struct {
	mu   sync.Mutex
	recs []db.EventRecord
}

func (m *memRecorder) InsertEvent(e db.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, e)
	return nil
}

func waitEvent(t *testing.T, ch <-chan events.StatusEvent) events.StatusEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for status event")
	}
	return events.StatusEvent{}
}

func TestChannel_RendersSelectedFileName(t *testing.T) {
	srv := pushServer(t, "abc123", `{"file_size": 1048576}`)
	sizes, _ := display.NewSizeFormatter("en-US")
	state := display.NewState(nil)
	got := make(chan events.StatusEvent, 1)

	ch := channel.New(channel.Options{
		URL:       wsURL(srv, "abc123"),
		SessionID: "abc123",
		State:     state,
		Sizes:     sizes,
		Names:     fixedName("report.pdf"),
		Logger:    applog.Discard(),
		OnEvent:   func(ev events.StatusEvent) { got <- ev },
	})
	if err := ch.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	waitEvent(t, got)
	snap := state.Snapshot()
	if snap.FileName != "report.pdf" {
		t.Errorf("file name: got %q want report.pdf", snap.FileName)
	}
	if snap.FileSizeText != "1,048,576 bytes" {
		t.Errorf("file size: got %q want 1,048,576 bytes", snap.FileSizeText)
	}
}

func TestChannel_MalformedFrameIsDropped(t *testing.T) {
	srv := pushServer(t, "s1", `this is not json`, `{"file_size": 7, "file_name": "b.txt"}`)
	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var renders []display.Snapshot
	state := display.NewState(func(s display.Snapshot) { renders = append(renders, s) })
	got := make(chan events.StatusEvent, 2)

	ch := channel.New(channel.Options{
		URL:       wsURL(srv, "s1"),
		SessionID: "s1",
		State:     state,
		Logger:    logger,
		OnEvent:   func(ev events.StatusEvent) { got <- ev },
	})
	if err := ch.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer ch.Close()

	ev := waitEvent(t, got)
	if ev.FileName != "b.txt" {
		t.Errorf("expected only the valid frame to be delivered, got %+v", ev)
	}
	if len(renders) != 1 {
		t.Errorf("malformed frame must not render; got %d renders", len(renders))
	}
	if !strings.Contains(logs.String(), "discarding message") {
		t.Errorf("expected warn log for malformed frame, got %q", logs.String())
	}
}

func TestChannel_DialFailure(t *testing.T) {
	srv := pushServer(t, "right")
	ch := channel.New(channel.Options{URL: wsURL(srv, "wrong"), SessionID: "wrong", Logger: applog.Discard()})
	if err := ch.Start(context.Background()); err == nil {
		ch.Close()
		t.Fatal("expected dial error for unknown session")
	}
}

func TestChannel_DoneWhenServerCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		conn.Close()
	}))
	defer srv.Close()

	ch := channel.New(channel.Options{URL: wsURL(srv, "x"), SessionID: "x", Logger: applog.Discard()})
	if err := ch.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not exit after server close")
	}
	ch.Close()
}

func TestHandle_NameFromEventWithoutResolver(t *testing.T) {
	state := display.NewState(nil)
	rec := &memRecorder{}
	ch := channel.New(channel.Options{SessionID: "s", State: state, Recorder: rec, Logger: applog.Discard()})

	ch.Handle([]byte(`{"file_size": 42, "file_name": "early.txt"}`))

	snap := state.Snapshot()
	if snap.FileName != "early.txt" || snap.FileSizeText != "42 bytes" {
		t.Errorf("got %+v", snap)
	}
	if len(rec.recs) != 1 || rec.recs[0].SessionID != "s" || rec.recs[0].FileSize != 42 {
		t.Errorf("recorded: %+v", rec.recs)
	}
}

func TestHandle_IgnoresEventsWithoutSize(t *testing.T) {
	state := display.NewState(nil)
	state.SetError("Error: keep me")
	ch := channel.New(channel.Options{State: state, Logger: applog.Discard()})

	ch.Handle([]byte(`{"file_name": "x"}`))
	ch.Handle([]byte(`{{{`))

	snap := state.Snapshot()
	if snap.FileName != "" || snap.FileSizeText != "" {
		t.Errorf("display should be untouched, got %+v", snap)
	}
	if snap.ErrorText != "Error: keep me" {
		t.Errorf("channel must never touch error text, got %q", snap.ErrorText)
	}
}

func TestClose_BeforeStart(t *testing.T) {
	ch := channel.New(channel.Options{})
	if err := ch.Close(); err != nil {
		t.Errorf("close before start: %v", err)
	}
}
