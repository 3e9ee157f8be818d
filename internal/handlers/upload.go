package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

// formOverhead covers multipart headers and boundaries around the file part.
const formOverhead = 1 << 20

// maxDrain bounds how much of an oversize upload is read just to report its size.
var maxDrain int64 = 1 << 30

// errUnmeasurable means an upload was larger than the limit plus maxDrain,
// so its real size is unknown.
var errUnmeasurable = errors.New("upload too large to measure")

// HandleSelect receives the picker's multipart form. The picker only
// suggests images, so the file is validated again by the workflow.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := h.session(w, r)

	limit := session.Workflow.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxDrain+formOverhead)
	file, err := readUpload(r, limit)
	var maxBytesErr *http.MaxBytesError
	if errors.Is(err, errUnmeasurable) || errors.As(err, &maxBytesErr) {
		h.writeError(w, "File too large. Maximum size is "+megabytes(limit)+"MB.", http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := session.Workflow.SelectFile(file); err != nil {
		slog.Info("Selection rejected", "session_id", session.ID, "err", err)
	}
	h.redirectHome(w, r)
}

// readUpload returns the "file" part, or nil when the form carried no file.
func readUpload(r *http.Request, limit int64) (*workflow.SelectedFile, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		defer part.Close()
		if part.FileName() == "" {
			return nil, nil
		}
		return readPart(part, limit)
	}
}

func readPart(part *multipart.Part, limit int64) (*workflow.SelectedFile, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, limit+1))
	if err != nil {
		return nil, err
	}

	file := &workflow.SelectedFile{
		Name:     part.FileName(),
		Size:     n,
		MIMEType: partMIMEType(part.Header.Get("Content-Type")),
	}

	if n > limit {
		// Too large: count the rest without keeping it so the message reports the real size.
		rest, err := io.Copy(io.Discard, io.LimitReader(part, maxDrain+1))
		if err != nil {
			return nil, err
		}
		if rest > maxDrain {
			return nil, errUnmeasurable
		}
		file.Size = n + rest
		return file, nil
	}

	file.Data = buf.Bytes()
	if file.MIMEType == "" || file.MIMEType == "application/octet-stream" {
		file.MIMEType = workflow.DetectMIMEType(file.Data)
	}
	return file, nil
}

func partMIMEType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return mt
}
