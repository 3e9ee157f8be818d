package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/asdscreen/internal/result"
)

const (
	defaultTimeout = 60 * time.Second
	// maxLoggedBody caps how much of an unusable response body is read for logging.
	maxLoggedBody = 4 << 10
	// maxResponseBody caps the JSON body accepted from the endpoint.
	maxResponseBody = 8 << 20

	nonJSONMessage = "API returned non-JSON response. Check server logs for details."
)

// Config captures the settings needed to reach the analysis endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts images to the analysis endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient returns a client for cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PredictURL is the endpoint images are posted to.
func (c *Client) PredictURL() string {
	return c.cfg.BaseURL + "/predict"
}

// Analyze uploads data as the multipart field "file" and interprets the response.
// It makes exactly one attempt.
func (c *Client) Analyze(ctx context.Context, filename, mimeType string, data []byte) (*result.Result, error) {
	body, contentType, err := buildMultipart(filename, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	url := c.PredictURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	slog.Debug("Calling analysis API", "url", url, "filename", filename, "bytes", len(data))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := readSnippet(resp.Body)
		slog.Error("Analysis API returned error status", "status", resp.StatusCode, "body", snippet)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		slog.Error("Unexpected content type from analysis API", "content_type", ct, "body", readSnippet(resp.Body))
		return nil, &FormatError{ContentType: ct, Message: nonJSONMessage}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	res, err := result.Parse(raw)
	if err != nil {
		slog.Error("Failed to parse analysis response", "err", err)
		return nil, &FormatError{ContentType: ct, Message: "Error: " + err.Error(), Err: err}
	}

	slog.Info("Analysis complete", "filename", filename, "kind", res.Kind.String(), "elapsed", time.Since(start))
	return res, nil
}

// Health checks that the service answers GET /health with a success status.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoggedBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// IsTransport reports whether err is a network level failure.
func IsTransport(err error) bool {
	var te *TransportError
	var se *StatusError
	return errors.As(err, &te) || errors.As(err, &se)
}

// IsFormat reports whether err came from an unusable response body.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func buildMultipart(filename, mimeType string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxLoggedBody))
	return strings.TrimSpace(string(b))
}
