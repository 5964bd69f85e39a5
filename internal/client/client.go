// Package client assembles one upload session: a session id, the display
// state, the selected-file form, the upload controller and the
// notification channel, all configured from config.Config.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/zsprackett/uploadwatch/internal/channel"
	"github.com/zsprackett/uploadwatch/internal/config"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/display"
	"github.com/zsprackett/uploadwatch/internal/events"
	"github.com/zsprackett/uploadwatch/internal/session"
	"github.com/zsprackett/uploadwatch/internal/upload"
)

// LastSessionKey is the metadata key holding the most recent session id.
const LastSessionKey = "last_session_id"

type Options struct {
	Config config.Config
	Store  *db.DB // optional history store
	Logger *slog.Logger
	// SessionID overrides the generated id. Used in tests.
	SessionID string
	Render    display.RenderFunc
	OnPhase   func(upload.Phase)
	OnEvent   func(events.StatusEvent)
	Dialer    *websocket.Dialer
}

type Client struct {
	SessionID string
	State     *display.State
	Form      *upload.PathForm
	Uploads   *upload.Controller
	Channel   *channel.Channel

	store  *db.DB
	logger *slog.Logger
}

func New(opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	sizes, err := display.NewSizeFormatter(cfg.Locale)
	if err != nil {
		return nil, err
	}
	uploadURL, err := cfg.UploadURL()
	if err != nil {
		return nil, err
	}
	id := opts.SessionID
	if id == "" {
		id = session.NewID()
	}
	channelURL, err := cfg.ChannelURL(id)
	if err != nil {
		return nil, err
	}

	c := &Client{
		SessionID: id,
		State:     display.NewState(opts.Render),
		Form:      upload.NewPathForm(""),
		store:     opts.Store,
		logger:    logger.With("session", id),
	}

	uploadOpts := upload.Options{
		URL:       uploadURL,
		FormField: cfg.FormField,
		MaxBytes:  cfg.MaxUploadBytes,
		SessionID: id,
		State:     c.State,
		Form:      c.Form,
		Logger:    c.logger,
		OnPhase:   opts.OnPhase,
	}
	channelOpts := channel.Options{
		URL:       channelURL,
		SessionID: id,
		State:     c.State,
		Sizes:     sizes,
		Logger:    c.logger,
		OnEvent:   opts.OnEvent,
		Dialer:    opts.Dialer,
	}
	if opts.Store != nil {
		uploadOpts.Recorder = opts.Store
		channelOpts.Recorder = opts.Store
	}

	c.Uploads = upload.NewController(uploadOpts)
	channelOpts.Names = c.Uploads
	c.Channel = channel.New(channelOpts)
	return c, nil
}

// Connect opens the notification channel and remembers the session id.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.Channel.Start(ctx); err != nil {
		return fmt.Errorf("open notification channel: %w", err)
	}
	if c.store != nil {
		if err := c.store.SetMeta(LastSessionKey, c.SessionID); err != nil {
			c.logger.Warn("save session id failed", "err", err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.Channel.Close()
}
