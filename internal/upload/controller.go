// Package upload implements the submit flow: validate the selected file
// locally, stream it as a multipart POST and reflect the outcome in the
// display state.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zsprackett/uploadwatch/internal/db"
	"github.com/zsprackett/uploadwatch/internal/display"
	"github.com/zsprackett/uploadwatch/internal/events"
)

// DefaultMaxBytes is the size ceiling used when Options.MaxBytes is zero.
const DefaultMaxBytes int64 = 100 * 1024 * 1024

// maxResponseBody caps how much of a response body is read for JSON.
const maxResponseBody = 1 << 20

// Phase is a step of a single submission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseRejected
	PhaseSending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseRejected:
		return "rejected"
	case PhaseSending:
		return "sending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Recorder persists submission outcomes. A nil Recorder is skipped.
type Recorder interface {
	InsertUpload(r db.UploadRecord) error
}

type Options struct {
	URL       string
	FormField string
	MaxBytes  int64
	SessionID string
	State     *display.State
	Form      Form
	Recorder  Recorder
	Logger    *slog.Logger
	Client    *http.Client
	// OnPhase observes every phase transition, ending with PhaseIdle.
	OnPhase func(Phase)
}

// Request describes the file picked for one submission.
type Request struct {
	Path string
	Name string
	Size int64
}

// Response is the decoded body of a successful upload.
type Response struct {
	StatusCode int
	Message    string
}

type Controller struct {
	opts     Options
	inFlight atomic.Bool

	mu       sync.Mutex
	phase    Phase
	lastName string
}

func NewController(opts Options) *Controller {
	if opts.FormField == "" {
		opts.FormField = "file"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Client == nil {
		// No timeout: an upload runs until the server answers.
		opts.Client = &http.Client{}
	}
	if opts.State == nil {
		opts.State = display.NewState(nil)
	}
	return &Controller{opts: opts}
}

// Phase reports the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Submit runs one submission. The error text is cleared first; a
// rejection or failure sets it again. The returned error is the same one
// that was rendered, for callers that need an exit status.
func (c *Controller) Submit(ctx context.Context) (Response, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Response{}, ErrUploadInProgress
	}
	defer c.inFlight.Store(false)
	defer c.setPhase(PhaseIdle)

	c.setPhase(PhaseValidating)
	c.opts.State.ClearError()

	req, err := c.validate()
	if err != nil {
		c.setPhase(PhaseRejected)
		c.opts.State.SetError(DisplayText(err))
		c.opts.Logger.Info("upload rejected", "reason", err)
		c.record(req, db.OutcomeRejected, err.Error())
		return Response{}, err
	}

	c.mu.Lock()
	c.lastName = req.Name
	c.mu.Unlock()

	c.setPhase(PhaseSending)
	c.opts.Logger.Info("upload started", "file", req.Name, "size", req.Size, "url", c.opts.URL)
	resp, err := c.send(ctx, req)
	if err != nil {
		c.setPhase(PhaseFailed)
		c.opts.State.SetError(DisplayText(err))
		c.opts.Logger.Warn("upload failed", "file", req.Name, "err", err)
		c.record(req, db.OutcomeFailed, err.Error())
		return Response{}, err
	}

	c.setPhase(PhaseSucceeded)
	c.opts.Logger.Info("upload successful", "file", req.Name, "message", resp.Message)
	c.record(req, db.OutcomeSucceeded, resp.Message)
	c.opts.Form.Reset()
	return resp, nil
}

// ResolveName implements channel.NameResolver. The server's own file_name
// wins; otherwise the name captured by the latest submission, so that a
// selection changed after submitting does not relabel the result; and
// finally whatever is selected right now.
func (c *Controller) ResolveName(ev events.StatusEvent) string {
	if ev.FileName != "" {
		return ev.FileName
	}
	c.mu.Lock()
	name := c.lastName
	c.mu.Unlock()
	if name != "" {
		return name
	}
	if c.opts.Form == nil {
		return ""
	}
	if p := strings.TrimSpace(c.opts.Form.SelectedPath()); p != "" {
		return filepath.Base(p)
	}
	return ""
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.opts.OnPhase != nil {
		c.opts.OnPhase(p)
	}
}

func (c *Controller) validate() (Request, error) {
	var path string
	if c.opts.Form != nil {
		path = strings.TrimSpace(c.opts.Form.SelectedPath())
	}
	if path == "" {
		return Request{}, &ValidationError{Reason: "no file selected"}
	}
	req := Request{Path: path, Name: filepath.Base(path)}

	info, err := os.Stat(path)
	if err != nil {
		return req, &ValidationError{Reason: fmt.Sprintf("cannot read %s: %v", req.Name, errors.Unwrap(err))}
	}
	if info.IsDir() {
		return req, &ValidationError{Reason: fmt.Sprintf("%s is a directory", req.Name)}
	}
	req.Size = info.Size()

	if req.Size > c.opts.MaxBytes {
		return req, &ValidationError{
			Reason: fmt.Sprintf("%s is %s, which exceeds the %s upload limit",
				req.Name, humanize.IBytes(uint64(req.Size)), humanize.IBytes(uint64(c.opts.MaxBytes))),
			Limit: c.opts.MaxBytes,
			Size:  req.Size,
		}
	}
	return req, nil
}

// send streams the file as multipart/form-data in a single POST.
func (c *Controller) send(ctx context.Context, req Request) (Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, c.opts.FormField, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, pr)
	if err != nil {
		pr.Close()
		return Response{}, &UploadError{Message: err.Error(), Err: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.opts.Client.Do(httpReq)
	if err != nil {
		return Response{}, &UploadError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, &UploadError{StatusCode: resp.StatusCode, Message: FallbackMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &UploadError{StatusCode: resp.StatusCode, Message: detailMessage(body)}
	}

	out := Response{StatusCode: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.opts.Logger.Debug("upload response is not JSON", "status", resp.StatusCode, "err", err)
	} else {
		out.Message = payload.Message
	}
	return out, nil
}

func writeMultipart(mw *multipart.Writer, field string, req Request) error {
	f, err := os.Open(req.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, req.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Controller) record(req Request, outcome db.Outcome, message string) {
	if c.opts.Recorder == nil {
		return
	}
	rec := db.UploadRecord{
		ID:        uuid.NewString(),
		SessionID: c.opts.SessionID,
		FileName:  req.Name,
		FileSize:  req.Size,
		Outcome:   outcome,
		Message:   message,
	}
	if err := c.opts.Recorder.InsertUpload(rec); err != nil {
		c.opts.Logger.Warn("record upload failed", "err", err)
	}
}
