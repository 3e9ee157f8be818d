package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/asdscreen/internal/models"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

// HandleSubmit starts the analysis for the session's file and returns immediately;
// the page polls until the workflow completes.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := h.session(w, r)

	// The request outlives this handler, so it must not inherit its cancellation.
	_, err := session.Workflow.Submit(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, workflow.ErrSubmitInFlight):
		slog.Debug("Ignoring duplicate submit", "session_id", session.ID)
	case err != nil:
		slog.Info("Submit rejected", "session_id", session.ID, "err", err)
	default:
		slog.Info("Analysis started", "session_id", session.ID)
	}
	h.redirectHome(w, r)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := h.session(w, r)
	session.Workflow.Reset()
	h.redirectHome(w, r)
}

// HandleState returns the session's workflow state as JSON.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		session := h.session(w, r)
		h.writeJSON(w, models.NewStateView(session.Workflow.Snapshot(), h.maxFileSize))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
