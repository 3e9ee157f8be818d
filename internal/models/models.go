package models

import (
	"sync"
	"time"

	"github.com/lehigh-university-libraries/asdscreen/internal/result"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

// Session is one browser's upload workflow. It is also the workflow's
// input handle: clearing it rotates the id of the rendered file input.
type Session struct {
	ID       string
	Workflow *workflow.Workflow

	mu           sync.Mutex
	lastSeen     time.Time
	inputVersion uint64
}

// NewSession returns a session for the browser identified by id. The caller attaches the Workflow.
func NewSession(id string) *Session {
	return &Session{ID: id, lastSeen: time.Now()}
}

// Clear implements workflow.InputHandle.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputVersion++
}

// InputVersion identifies the current file input element.
func (s *Session) InputVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputVersion
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// StateView is the JSON shape of a workflow snapshot.
type StateView struct {
	State          string             `json:"state"`
	File           *workflow.FileInfo `json:"file,omitempty"`
	PreviewPending bool               `json:"preview_pending"`
	HasPreview     bool               `json:"has_preview"`
	Error          string             `json:"error,omitempty"`
	ErrorKind      string             `json:"error_kind,omitempty"`
	ResultKind     string             `json:"result_kind,omitempty"`
	Result         *result.View       `json:"result,omitempty"`
	MaxFileSize    int64              `json:"max_file_size"`
}

// NewStateView converts a snapshot for the JSON API.
func NewStateView(snap workflow.Snapshot, maxFileSize int64) StateView {
	view := StateView{
		State:          snap.State.String(),
		File:           snap.File,
		PreviewPending: snap.PreviewPending,
		HasPreview:     snap.Preview != "",
		Error:          snap.Error,
		ErrorKind:      string(snap.ErrorKind),
		MaxFileSize:    maxFileSize,
	}
	if snap.Result != nil {
		rendered := result.Render(snap.Result)
		view.Result = &rendered
		view.ResultKind = snap.Result.Kind.String()
	}
	return view
}
