package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/asdscreen/internal/inference"
	"github.com/lehigh-university-libraries/asdscreen/internal/result"
)

// State is the position of a Workflow in its select/submit/reset cycle.
type State int

const (
	Idle State = iota
	Selected
	Submitting
	Completed
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// ErrorKind classifies the message held in Snapshot.Error.
type ErrorKind string

const (
	ErrorNone       ErrorKind = ""
	ErrorValidation ErrorKind = "validation"
	ErrorTransport  ErrorKind = "transport"
	ErrorFormat     ErrorKind = "format"
)

var (
	// ErrNoFileSelected is returned by Submit when there is nothing to send.
	ErrNoFileSelected = errors.New("Please select an image file")
	// ErrSubmitInFlight is returned by Submit while a request is already pending.
	ErrSubmitInFlight = errors.New("analysis already in progress")
)

// Analyzer sends one image to the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, filename, mimeType string, data []byte) (*result.Result, error)
}

// InputHandle is the presentation layer's file input, cleared on Reset.
type InputHandle interface {
	Clear()
}

// Snapshot is a point-in-time copy of the workflow state.
type Snapshot struct {
	State          State
	File           *FileInfo
	Preview        string
	PreviewPending bool
	Result         *result.Result
	Error          string
	ErrorKind      ErrorKind
}

// Workflow owns the state of one upload, analyze, reset cycle.
//
// Selections and submissions are stamped with tokens; asynchronous preview
// and response completions whose token is no longer current are dropped.
type Workflow struct {
	analyzer      Analyzer
	maxFileSize   int64
	input         InputHandle
	encodePreview PreviewEncoder
	logger        *slog.Logger

	mu          sync.Mutex
	state       State
	file        *SelectedFile
	preview     string
	previewDone chan struct{}
	result      *result.Result
	errMsg      string
	errKind     ErrorKind
	selection   uint64
	request     uint64
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithMaxFileSize sets the largest accepted file in bytes.
func WithMaxFileSize(n int64) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxFileSize = n
		}
	}
}

// WithInputHandle registers the file input to clear on Reset.
func WithInputHandle(h InputHandle) Option {
	return func(w *Workflow) {
		w.input = h
	}
}

// WithPreviewEncoder overrides how preview data is produced.
func WithPreviewEncoder(fn PreviewEncoder) Option {
	return func(w *Workflow) {
		if fn != nil {
			w.encodePreview = fn
		}
	}
}

// WithLogger sets the logger used for workflow events.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// New returns an idle workflow that submits through analyzer.
func New(analyzer Analyzer, opts ...Option) *Workflow {
	w := &Workflow{
		analyzer:      analyzer,
		maxFileSize:   DefaultMaxFileSize,
		encodePreview: DataURL,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MaxFileSize returns the configured upload limit in bytes.
func (w *Workflow) MaxFileSize() int64 {
	return w.maxFileSize
}

// SelectFile replaces the current selection. A nil file clears it without error.
// An invalid file is rejected with a *ValidationError and leaves no selection.
func (w *Workflow) SelectFile(file *SelectedFile) error {
	w.mu.Lock()
	w.selection++
	w.request++
	w.result = nil
	w.errMsg = ""
	w.errKind = ErrorNone

	if file == nil {
		w.clearSelectionLocked()
		w.mu.Unlock()
		return nil
	}

	if err := Validate(file, w.maxFileSize); err != nil {
		w.clearSelectionLocked()
		w.errMsg = err.Error()
		w.errKind = ErrorValidation
		w.mu.Unlock()
		w.logger.Info("File rejected", "name", file.Name, "size", file.Size, "mime_type", file.MIMEType, "reason", err.Error())
		return err
	}

	done := make(chan struct{})
	token := w.selection
	w.file = file
	w.preview = ""
	w.previewDone = done
	w.state = Selected
	w.mu.Unlock()

	w.logger.Debug("File selected", "name", file.Name, "size", file.Size, "mime_type", file.MIMEType)
	go w.renderPreview(token, file, done)
	return nil
}

func (w *Workflow) renderPreview(token uint64, file *SelectedFile, done chan struct{}) {
	defer close(done)
	preview := w.encodePreview(file.MIMEType, file.Data)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.selection {
		w.logger.Debug("Discarding stale preview", "name", file.Name)
		return
	}
	w.preview = preview
}

// Submit starts the analysis request for the selected file and returns a
// channel that is closed once the outcome has been recorded or discarded.
// It does not wait for the preview.
func (w *Workflow) Submit(ctx context.Context) (<-chan struct{}, error) {
	w.mu.Lock()
	if w.state == Submitting {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if w.file == nil {
		w.result = nil
		w.errMsg = ErrNoFileSelected.Error()
		w.errKind = ErrorValidation
		w.mu.Unlock()
		return nil, ErrNoFileSelected
	}

	w.request++
	token := w.request
	file := w.file
	w.result = nil
	w.errMsg = ""
	w.errKind = ErrorNone
	w.state = Submitting
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := w.analyzer.Analyze(ctx, file.Name, file.MIMEType, file.Data)
		w.complete(token, file.Name, res, err)
	}()
	return done, nil
}

func (w *Workflow) complete(token uint64, name string, res *result.Result, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if token != w.request {
		w.logger.Debug("Discarding stale analysis response", "name", name)
		return
	}

	w.state = Completed
	if err == nil && res == nil {
		err = &inference.FormatError{Message: "Error: empty response"}
	}
	if err != nil {
		w.result = nil
		w.errMsg, w.errKind = describeError(err)
		w.logger.Warn("Analysis failed", "name", name, "kind", string(w.errKind), "err", err)
		return
	}
	w.result = res
	w.errMsg = ""
	w.errKind = ErrorNone
}

// Reset returns the workflow to Idle from any state. Pending completions become stale.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.selection++
	w.request++
	w.clearSelectionLocked()
	w.result = nil
	w.errMsg = ""
	w.errKind = ErrorNone
	input := w.input
	w.mu.Unlock()

	if input != nil {
		input.Clear()
	}
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		State:     w.state,
		Preview:   w.preview,
		Result:    w.result,
		Error:     w.errMsg,
		ErrorKind: w.errKind,
	}
	if w.file != nil {
		snap.File = w.file.info()
		snap.PreviewPending = w.preview == ""
	}
	return snap
}

// AwaitPreview blocks until the current selection's preview is ready.
func (w *Workflow) AwaitPreview(ctx context.Context) error {
	w.mu.Lock()
	done := w.previewDone
	w.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workflow) clearSelectionLocked() {
	w.file = nil
	w.preview = ""
	w.previewDone = nil
	w.state = Idle
}

func describeError(err error) (string, ErrorKind) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error(), ErrorValidation
	case inference.IsFormat(err):
		return err.Error(), ErrorFormat
	case inference.IsTransport(err):
		return err.Error(), ErrorTransport
	default:
		return "Error: " + err.Error(), ErrorTransport
	}
}
