package dialogs

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/zsprackett/uploadwatch/internal/db"
)

// HistorySource is the part of the store the history dialog reads.
type HistorySource interface {
	RecentUploads(limit int) ([]db.UploadRecord, error)
	RecentEvents(limit int) ([]db.EventRecord, error)
}

// HistoryDialog lists recent uploads and status events.
type HistoryDialog struct {
	*tview.TextView
	src   HistorySource
	limit int
	now   func() time.Time
}

// NewHistoryDialog loads the newest limit entries of each kind. onClose is
// called on Q or Escape; R reloads.
func NewHistoryDialog(src HistorySource, limit int, onClose func()) *HistoryDialog {
	d := &HistoryDialog{
		TextView: tview.NewTextView(),
		src:      src,
		limit:    limit,
		now:      time.Now,
	}
	d.SetBorder(true).SetTitle(" Upload History ").SetTitleAlign(tview.AlignLeft)
	d.SetDynamicColors(true)
	d.SetScrollable(true)
	d.SetBackgroundColor(tcell.ColorDefault)

	d.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Key() == tcell.KeyF2,
			event.Rune() == 'q', event.Rune() == 'Q':
			onClose()
			return nil
		case event.Rune() == 'r', event.Rune() == 'R':
			d.Reload()
			return nil
		}
		return event
	})

	d.Reload()
	return d
}

// Reload re-reads the store and redraws the text.
func (d *HistoryDialog) Reload() {
	if d.src == nil {
		d.SetText("\n  [yellow]History is unavailable.[-]")
		return
	}
	uploads, err := d.src.RecentUploads(d.limit)
	if err != nil {
		d.SetText(fmt.Sprintf("\n  [red]Could not load uploads: %s[-]", tview.Escape(err.Error())))
		return
	}
	evs, err := d.src.RecentEvents(d.limit)
	if err != nil {
		d.SetText(fmt.Sprintf("\n  [red]Could not load events: %s[-]", tview.Escape(err.Error())))
		return
	}
	d.SetText(HistoryText(uploads, evs, d.now()))
}

func outcomeColor(o db.Outcome) string {
	switch o {
	case db.OutcomeSucceeded:
		return "green"
	case db.OutcomeRejected:
		return "yellow"
	default:
		return "red"
	}
}

// HistoryText renders uploads and events with tview color tags.
func HistoryText(uploads []db.UploadRecord, evs []db.EventRecord, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("\n [yellow]Uploads[-]\n\n")
	if len(uploads) == 0 {
		sb.WriteString("  [::d]none yet[::-]\n")
	}
	for _, u := range uploads {
		fmt.Fprintf(&sb, "  [%s]%-9s[-] %-30s %10s  %s\n",
			outcomeColor(u.Outcome), u.Outcome,
			tview.Escape(u.FileName), humanize.IBytes(uint64(u.FileSize)),
			humanize.RelTime(u.CreatedAt, now, "ago", "from now"))
		if u.Message != "" {
			fmt.Fprintf(&sb, "            [::d]%s[::-]\n", tview.Escape(u.Message))
		}
	}

	sb.WriteString("\n [yellow]Status events[-]\n\n")
	if len(evs) == 0 {
		sb.WriteString("  [::d]none yet[::-]\n")
	}
	for _, e := range evs {
		fmt.Fprintf(&sb, "  %-30s %10s  %s  [::d]%s[::-]\n",
			tview.Escape(e.FileName), humanize.Comma(e.FileSize)+" B",
			humanize.RelTime(e.ReceivedAt, now, "ago", "from now"), tview.Escape(e.SessionID))
	}

	sb.WriteString("\n  [::d]R reload, Q or Esc close[::-]")
	return sb.String()
}
