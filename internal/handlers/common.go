package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/asdscreen/internal/models"
	"github.com/lehigh-university-libraries/asdscreen/internal/storage"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

const sessionCookie = "asdscreen_session"

type Handler struct {
	sessionStore *storage.SessionStore
	analyzer     workflow.Analyzer
	maxFileSize  int64
}

func New(analyzer workflow.Analyzer, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = workflow.DefaultMaxFileSize
	}
	return &Handler{
		sessionStore: storage.New(),
		analyzer:     analyzer,
		maxFileSize:  maxFileSize,
	}
}

// Register adds the form and API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandleIndex)
	mux.HandleFunc("/select", h.HandleSelect)
	mux.HandleFunc("/submit", h.HandleSubmit)
	mux.HandleFunc("/reset", h.HandleReset)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// RunCleanup drops idle sessions every interval until ctx is done.
func (h *Handler) RunCleanup(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := h.sessionStore.CleanupIdle(ttl); removed > 0 {
				slog.Debug("Removed idle sessions", "count", removed, "remaining", h.sessionStore.Len())
			}
		}
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// megabytes formats n bytes as MiB without trailing zeros.
func megabytes(n int64) string {
	return strconv.FormatFloat(float64(n)/(1024*1024), 'f', -1, 64)
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Session helpers
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *models.Session {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	session, created := h.sessionStore.GetOrCreate(id, h.newSession)
	if created {
		slog.Debug("Session created", "session_id", id)
	}
	session.Touch()
	return session
}

func (h *Handler) newSession(id string) *models.Session {
	session := models.NewSession(id)
	session.Workflow = workflow.New(h.analyzer,
		workflow.WithMaxFileSize(h.maxFileSize),
		workflow.WithInputHandle(session),
		workflow.WithLogger(slog.Default().With("session_id", id)),
	)
	return session
}
