package dialogs

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const helpText = `[yellow]Upload Form[-]

  [green]Tab/Shift+Tab[-]  Move between field and buttons
  [green]Enter[-]          Press the focused button
  [green]F1[-]             This help
  [green]F2[-]             Upload history
  [green]Ctrl+Q[-]         Quit

[yellow]Status[-]

  File name and size appear when the server reports on
  the notification channel. Rejected or failed uploads
  show their reason in red; the next Upload clears it.

Press [green]Escape[-] or [green]F1[-] to close.`

func HelpDialog(onClose func()) *tview.TextView {
	tv := tview.NewTextView()
	tv.SetBorder(true).SetTitle(" Help ").SetTitleAlign(tview.AlignLeft)
	tv.SetDynamicColors(true)
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetText(helpText)
	tv.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyF1 {
			onClose()
			return nil
		}
		return event
	})
	return tv
}
