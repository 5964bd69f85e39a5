package dialogs

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ConfirmDialog shows message with a confirm and a cancel button.
// Escape counts as cancel.
func ConfirmDialog(message, confirmLabel, cancelLabel string, onConfirm func(), onCancel func()) *tview.Modal {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{confirmLabel, cancelLabel}).
		SetDoneFunc(func(_ int, label string) {
			if label == confirmLabel {
				onConfirm()
			} else {
				onCancel()
			}
		})
	modal.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			onCancel()
			return nil
		}
		return event
	})
	return modal
}
