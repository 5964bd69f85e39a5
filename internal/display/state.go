// Package display holds the visible upload status: file name, file size
// and error text. Both the notification channel and the upload controller
// write into a State; a single render hook publishes every change.
package display

import (
	"strings"
	"sync"
)

// Snapshot is an immutable copy of the display fields.
type Snapshot struct {
	FileName     string
	FileSizeText string
	ErrorText    string
}

// Lines renders the non-empty fields the way the status regions label them.
func (s Snapshot) Lines() []string {
	var out []string
	if s.FileName != "" {
		out = append(out, "File Name: "+s.FileName)
	}
	if s.FileSizeText != "" {
		out = append(out, "File Size: "+s.FileSizeText)
	}
	if s.ErrorText != "" {
		out = append(out, s.ErrorText)
	}
	return out
}

func (s Snapshot) String() string {
	return strings.Join(s.Lines(), "\n")
}

// RenderFunc receives a snapshot after every mutation.
type RenderFunc func(Snapshot)

// State is the mutable display record. Writers touch disjoint field groups
// (name/size from status events, error from submissions); last write wins.
type State struct {
	mu     sync.Mutex
	snap   Snapshot
	render RenderFunc
}

// NewState returns an empty State. render may be nil.
func NewState(render RenderFunc) *State {
	return &State{render: render}
}

// SetRender replaces the render hook and immediately renders the current
// snapshot through it.
func (s *State) SetRender(fn RenderFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render = fn
	s.publish()
}

// SetFile records the name and formatted size reported for an upload.
func (s *State) SetFile(name, sizeText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.FileName = name
	s.snap.FileSizeText = sizeText
	s.publish()
}

func (s *State) SetError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ErrorText = text
	s.publish()
}

func (s *State) ClearError() {
	s.SetError("")
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// publish must be called with mu held so renders arrive in mutation order.
func (s *State) publish() {
	if s.render != nil {
		s.render(s.snap)
	}
}
