// Package channel keeps the WebSocket notification channel to the upload
// server open and turns pushed status events into display updates.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/display"
	"github.com/zsprackett/uploadwatch/internal/events"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("channel closed")

// NameResolver picks the file name shown for a status event.
type NameResolver interface {
	ResolveName(ev events.StatusEvent) string
}

// Recorder persists accepted status events. A nil Recorder is skipped.
type Recorder interface {
	InsertEvent(e db.EventRecord) error
}

type Options struct {
	URL       string
	SessionID string
	State     *display.State
	Sizes     *display.SizeFormatter
	Names     NameResolver
	Recorder  Recorder
	Logger    *slog.Logger
	// OnEvent runs after the display has been updated for an event.
	OnEvent func(ev events.StatusEvent)
	Dialer  *websocket.Dialer
}

// Channel owns one WebSocket connection addressed by a session id. There is
// no reconnect and no heartbeat: once the server goes away the read loop
// ends and Done is closed.
type Channel struct {
	opts    Options
	mu      sync.Mutex
	conn    *websocket.Conn
	wg      sync.WaitGroup
	done    chan struct{}
	closing atomic.Bool
}

func New(opts Options) *Channel {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Channel{opts: opts, done: make(chan struct{})}
}

// SessionID returns the identifier the channel was opened with.
func (c *Channel) SessionID() string {
	return c.opts.SessionID
}

// Start dials the server and starts the read loop.
func (c *Channel) Start(ctx context.Context) error {
	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", c.opts.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing.Load() {
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.opts.Logger.Info("channel connected", "session", c.opts.SessionID, "url", c.opts.URL)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		c.readLoop(conn)
	}()
	return nil
}

// Done is closed when the read loop exits.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection and waits for the read loop.
// A Channel cannot be restarted once closed.
func (c *Channel) Close() error {
	c.mu.Lock()
	if !c.closing.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := conn.Close()
	c.wg.Wait()
	return err
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case c.closing.Load():
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				c.opts.Logger.Info("channel closed by server", "session", c.opts.SessionID)
			case errors.Is(err, context.Canceled):
			default:
				c.opts.Logger.Warn("channel read failed", "session", c.opts.SessionID, "err", err)
			}
			return
		}
		c.Handle(data)
	}
}

// Handle applies one inbound frame. Frames that do not parse are logged and
// dropped; frames without file_size are ignored. Only the file name and
// size fields of the display are written.
func (c *Channel) Handle(data []byte) {
	logger := c.opts.Logger
	logger.Debug("channel message received", "payload", string(data))

	ev, err := events.Parse(data)
	if err != nil {
		logger.Warn("channel: discarding message", "err", err)
		return
	}
	if !ev.HasSize {
		logger.Debug("channel: message without file_size ignored")
		return
	}

	name := ev.FileName
	if c.opts.Names != nil {
		name = c.opts.Names.ResolveName(ev)
	}
	if c.opts.State != nil {
		c.opts.State.SetFile(name, c.formatSize(ev.FileSize))
	}

	if c.opts.Recorder != nil {
		rec := db.EventRecord{SessionID: c.opts.SessionID, FileName: name, FileSize: ev.FileSize}
		if err := c.opts.Recorder.InsertEvent(rec); err != nil {
			logger.Warn("channel: record event failed", "err", err)
		}
	}
	if c.opts.OnEvent != nil {
		c.opts.OnEvent(ev)
	}
}

func (c *Channel) formatSize(n int64) string {
	if c.opts.Sizes == nil {
		return fmt.Sprintf("%d bytes", n)
	}
	return c.opts.Sizes.Format(n)
}
