package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/zsprackett/uploadwatch/internal/applog"
	"github.com/zsprackett/uploadwatch/internal/client"
	"github.com/zsprackett/uploadwatch/internal/config"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/events"
	"github.com/zsprackett/uploadwatch/internal/ui"
)

func openDB() (*db.DB, error) {
	dbPath := config.DBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}
	store, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  uploadwatch              interactive upload form
  uploadwatch send <file>  upload one file and print the reported status
  uploadwatch history      list recent uploads and status events`)
}

func main() {
	os.Exit(run())
}

// run executes the command in os.Args and returns the exit code, so that
// deferred cleanup runs before the process exits.
func run() int {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load config: %v\n", err)
		cfg = config.Defaults()
	}

	logger, logCloser, err := applog.Init(applog.InitConfig{
		LogDir:   cfg.LogDir,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not init log file: %v\n", err)
		logger = slog.Default() // falls back to default (stderr)
	} else {
		defer logCloser.Close()
	}

	store, err := openDB()
	if err != nil {
		// history is optional; uploads still work without it
		fmt.Fprintf(os.Stderr, "warning: could not open history: %v\n", err)
		logger.Warn("history store unavailable", "err", err)
		store = nil
	} else {
		defer store.Close()
	}

	switch {
	case len(os.Args) == 3 && os.Args[1] == "send":
		return runSend(cfg, store, logger, os.Args[2])
	case len(os.Args) == 2 && os.Args[1] == "history":
		if store == nil {
			fmt.Fprintln(os.Stderr, "error: history store is unavailable")
			return 1
		}
		if err := printHistory(os.Stdout, store, cfg.HistoryLimit); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	case len(os.Args) > 1:
		usage()
		return 2
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "error: interactive mode needs a terminal; use 'uploadwatch send <file>'")
		return 1
	}

	app, err := ui.NewApp(store, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runSend uploads path, waits up to cfg.StatusWait for the server's status
// event and prints the resulting display. It returns the process exit code.
func runSend(cfg config.Config, store *db.DB, logger *slog.Logger, path string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reported := make(chan struct{}, 1)
	cl, err := client.New(client.Options{
		Config: cfg,
		Store:  store,
		Logger: logger,
		OnEvent: func(events.StatusEvent) {
			select {
			case reported <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer cl.Close()

	connected := true
	if err := cl.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		connected = false
	}

	cl.Form.Select(path)
	_, uploadErr := cl.Uploads.Submit(ctx)

	if uploadErr == nil && connected {
		select {
		case <-reported:
		case <-cl.Channel.Done():
		case <-time.After(cfg.StatusWaitDuration()):
			fmt.Fprintln(os.Stderr, "warning: no status reported by the server")
		case <-ctx.Done():
		}
	}

	for _, line := range cl.State.Snapshot().Lines() {
		fmt.Println(line)
	}
	if uploadErr != nil {
		return 1
	}
	return 0
}

func printHistory(w io.Writer, store *db.DB, limit int) error {
	uploads, err := store.RecentUploads(limit)
	if err != nil {
		return fmt.Errorf("load uploads: %w", err)
	}
	evs, err := store.RecentEvents(limit)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	last, _ := store.GetMeta(client.LastSessionKey)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "last session:\t%s\n\n", last)
	fmt.Fprintln(tw, "OUTCOME\tFILE\tSIZE\tWHEN\tMESSAGE")
	for _, u := range uploads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			u.Outcome, u.FileName, humanize.IBytes(uint64(u.FileSize)), humanize.Time(u.CreatedAt), u.Message)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SESSION\tFILE\tBYTES\tWHEN")
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.SessionID, e.FileName, humanize.Comma(e.FileSize), humanize.Time(e.ReceivedAt))
	}
	return tw.Flush()
}
