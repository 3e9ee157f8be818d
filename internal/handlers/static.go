package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/asdscreen/internal/models"
	"github.com/lehigh-university-libraries/asdscreen/internal/result"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	InputID        string
	MaxFileSizeMB  string
	File           *workflow.FileInfo
	Preview        template.URL
	PreviewPending bool
	CanSubmit      bool
	Submitting     bool
	Refresh        bool
	Error          string
	HasResult      bool
	Result         result.View
	BarStyle       template.CSS
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := h.session(w, r)
	data := h.buildPage(session)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := indexTemplate.Execute(w, data); err != nil {
		slog.Error("Unable to render page", "err", err)
	}
}

func (h *Handler) buildPage(session *models.Session) pageData {
	snap := session.Workflow.Snapshot()
	data := pageData{
		InputID:        "fileInput-" + strconv.FormatUint(session.InputVersion(), 10),
		MaxFileSizeMB:  megabytes(h.maxFileSize),
		File:           snap.File,
		PreviewPending: snap.PreviewPending,
		Submitting:     snap.State == workflow.Submitting,
		CanSubmit:      snap.File != nil && snap.State != workflow.Submitting,
		Error:          snap.Error,
	}
	// The preview is a data URL built from a file already validated as image/*.
	data.Preview = template.URL(snap.Preview)
	data.Refresh = data.Submitting || data.PreviewPending

	if snap.Result != nil {
		data.HasResult = true
		data.Result = result.Render(snap.Result)
		if data.Result.Structured {
			data.BarStyle = template.CSS("width: " + data.Result.ConfidencePercent + "%")
		}
	}
	return data
}
