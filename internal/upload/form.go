package upload

import "sync"

// Form is the source of the selected file. Reset clears the selection after
// a successful upload.
type Form interface {
	SelectedPath() string
	Reset()
}

// PathForm is a Form holding a single file path. It is safe for concurrent
// use, so the TUI can update it from input callbacks while an upload reads
// it from another goroutine.
type PathForm struct {
	mu      sync.Mutex
	path    string
	onReset func()
}

func NewPathForm(path string) *PathForm {
	return &PathForm{path: path}
}

// OnReset registers fn to run after every Reset.
func (f *PathForm) OnReset(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onReset = fn
}

func (f *PathForm) Select(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = path
}

func (f *PathForm) SelectedPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

func (f *PathForm) Reset() {
	f.mu.Lock()
	f.path = ""
	fn := f.onReset
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}
