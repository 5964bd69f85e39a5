package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
	"github.com/zsprackett/uploadwatch/internal/display"
)

// maxNameWidth bounds the file name in the fileName region, in cells.
const maxNameWidth = 60

const fileLabel = "File"

// UploadView is the main screen: the upload form on top, the fileName,
// fileSize and error regions below it.
type UploadView struct {
	*tview.Flex
	header   *tview.TextView
	form     *tview.Form
	input    *tview.InputField
	fileName *tview.TextView
	fileSize *tview.TextView
	errText  *tview.TextView
	status   *tview.TextView
	footer   *tview.TextView

	phase   string
	channel string
}

func NewUploadView(onPathChanged func(string), onUpload func(), onQuit func()) *UploadView {
	v := &UploadView{phase: "idle", channel: "connecting"}

	v.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	v.header.SetBackgroundColor(ColorBackgroundPanel)

	v.form = tview.NewForm()
	v.form.SetBorder(true).SetTitle(" Upload ").SetTitleAlign(tview.AlignLeft)
	v.form.SetBackgroundColor(ColorBackground)
	v.form.SetFieldBackgroundColor(ColorBackgroundPanel)
	v.form.AddInputField(fileLabel, "", 50, nil, onPathChanged)
	v.form.AddButton("Upload", onUpload)
	v.form.AddButton("Quit", onQuit)
	v.input = v.form.GetFormItemByLabel(fileLabel).(*tview.InputField)

	v.fileName = newRegion()
	v.fileSize = newRegion()
	v.errText = newRegion()
	v.errText.SetTextColor(ColorError)

	regions := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.fileName, 1, 0, false).
		AddItem(v.fileSize, 1, 0, false).
		AddItem(v.errText, 0, 1, false)
	regions.SetBorder(true).SetTitle(" Status ").SetTitleAlign(tview.AlignLeft)
	regions.SetBackgroundColor(ColorBackground)

	v.status = tview.NewTextView().SetDynamicColors(true)
	v.status.SetBackgroundColor(ColorBackgroundPanel)

	v.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	v.footer.SetBackgroundColor(ColorBackgroundPanel)
	v.footer.SetText("[green]Tab[-] next field  [green]Enter[-] press button  " +
		"[green]F1[-] help  [green]F2[-] history  [green]Ctrl+Q[-] quit")

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.header, 1, 0, false).
		AddItem(v.form, 7, 0, true).
		AddItem(regions, 0, 1, false).
		AddItem(v.status, 1, 0, false).
		AddItem(v.footer, 1, 0, false)

	v.refreshStatus()
	return v
}

func newRegion() *tview.TextView {
	tv := tview.NewTextView().SetWrap(true)
	tv.SetBackgroundColor(ColorBackground)
	tv.SetTextColor(ColorText)
	return tv
}

func (v *UploadView) SetHeader(sessionID, server string) {
	v.header.SetText(fmt.Sprintf(" [::b]uploadwatch[::-]  session [yellow]%s[-]  %s",
		tview.Escape(sessionID), tview.Escape(server)))
}

// Render writes a display snapshot into the three status regions.
func (v *UploadView) Render(s display.Snapshot) {
	v.fileName.SetText(labelled("File Name: ", runewidth.Truncate(s.FileName, maxNameWidth, "…")))
	v.fileSize.SetText(labelled("File Size: ", s.FileSizeText))
	v.errText.SetText(s.ErrorText)
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}

// SetPhase shows the upload phase in the status bar.
func (v *UploadView) SetPhase(phase string) {
	v.phase = phase
	v.refreshStatus()
}

// SetChannel shows the notification channel state in the status bar.
func (v *UploadView) SetChannel(state string) {
	v.channel = state
	v.refreshStatus()
}

// ClearSelection empties the file field after a successful upload.
func (v *UploadView) ClearSelection() {
	v.input.SetText("")
}

func (v *UploadView) refreshStatus() {
	icon, color := PhaseIcon(v.phase)
	chColor := ColorSuccess
	if v.channel != "connected" {
		chColor = ColorWarning
	}
	v.status.SetText(fmt.Sprintf(" %s %s   channel: %s",
		colorize(color, icon), tview.Escape(v.phase), colorize(chColor, tview.Escape(v.channel))))
}

func colorize(c tcell.Color, s string) string {
	return fmt.Sprintf("[#%06x]%s[-]", c.Hex(), s)
}
