package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/zsprackett/uploadwatch/internal/client"
	"github.com/zsprackett/uploadwatch/internal/config"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/display"
	"github.com/zsprackett/uploadwatch/internal/ui/dialogs"
	"github.com/zsprackett/uploadwatch/internal/upload"
)

type App struct {
	tapp   *tview.Application
	pages  *tview.Pages
	view   *UploadView
	client *client.Client
	store  *db.DB
	cfg    config.Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(store *db.DB, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.tapp = tview.NewApplication()
	a.pages = tview.NewPages()

	cl, err := client.New(client.Options{
		Config: cfg,
		Store:  store,
		Logger: logger,
		OnPhase: func(p upload.Phase) {
			a.tapp.QueueUpdateDraw(func() { a.view.SetPhase(p.String()) })
		},
	})
	if err != nil {
		a.cancel()
		return nil, err
	}
	a.client = cl

	a.view = NewUploadView(cl.Form.Select, a.onUpload, a.onQuit)
	a.view.SetHeader(cl.SessionID, cfg.ServerURL)
	cl.Form.OnReset(func() {
		a.tapp.QueueUpdateDraw(a.view.ClearSelection)
	})

	a.pages.AddPage("home", a.view, true, true)
	a.tapp.SetRoot(a.pages, true).EnableMouse(true)
	a.tapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			if !a.pages.HasPage("help") {
				a.showHelp()
				return nil
			}
		case tcell.KeyF2:
			if !a.pages.HasPage("history") {
				a.showHistory()
				return nil
			}
		case tcell.KeyCtrlQ:
			a.onQuit()
			return nil
		}
		return event
	})
	return a, nil
}

func (a *App) Run() error {
	redraw := newRedrawer(a.client.State.Snapshot, func(s display.Snapshot) {
		a.tapp.QueueUpdateDraw(func() { a.view.Render(s) })
	})
	go redraw.Run(a.ctx)
	a.client.State.SetRender(redraw.Notify)

	go a.connect()

	err := a.tapp.Run()
	a.cancel()
	if cerr := a.client.Close(); cerr != nil {
		a.logger.Debug("close notification channel", "err", cerr)
	}
	return err
}

// connect opens the notification channel once; there is no reconnect.
func (a *App) connect() {
	if err := a.client.Connect(a.ctx); err != nil {
		a.logger.Warn("notification channel unavailable", "err", err)
		a.tapp.QueueUpdateDraw(func() { a.view.SetChannel("offline") })
		return
	}
	a.tapp.QueueUpdateDraw(func() { a.view.SetChannel("connected") })
	select {
	case <-a.client.Channel.Done():
		a.tapp.QueueUpdateDraw(func() { a.view.SetChannel("closed") })
	case <-a.ctx.Done():
	}
}

func (a *App) onUpload() {
	go func() {
		_, err := a.client.Uploads.Submit(a.ctx)
		if errors.Is(err, upload.ErrUploadInProgress) {
			a.logger.Debug("upload ignored: one is already running")
		}
		// Every other outcome has already been rendered into the display.
	}()
}

func (a *App) onQuit() {
	if a.client.Uploads.Phase() != upload.PhaseIdle {
		modal := dialogs.ConfirmDialog(
			"An upload is still running.\nQuit anyway?", "Quit", "Stay",
			func() { a.tapp.Stop() },
			func() { a.closeDialog("confirm-quit") },
		)
		a.pages.AddPage("confirm-quit", modal, true, true)
		return
	}
	a.tapp.Stop()
}

func (a *App) showDialog(name string, widget tview.Primitive, width, height int) {
	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexColumn).
			AddItem(nil, 0, 1, false).
			AddItem(widget, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
	a.pages.AddPage(name, modal, true, true)
	a.tapp.SetFocus(widget)
}

func (a *App) closeDialog(name string) {
	a.pages.RemovePage(name)
	a.tapp.SetFocus(a.view.form)
}

func (a *App) showHelp() {
	help := dialogs.HelpDialog(func() { a.closeDialog("help") })
	a.showDialog("help", help, 62, 20)
}

func (a *App) showHistory() {
	var src dialogs.HistorySource
	if a.store != nil {
		src = a.store
	}
	d := dialogs.NewHistoryDialog(src, a.cfg.HistoryLimit, func() { a.closeDialog("history") })
	a.showDialog("history", d, 90, 30)
}
