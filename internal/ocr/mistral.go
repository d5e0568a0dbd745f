package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for the Mistral OCR client.
type Config struct {
	APIKey  string        // if empty, falls back to env MISTRAL_API_KEY
	BaseURL string        // default https://api.mistral.ai/v1
	Model   string        // e.g. "mistral-ocr-latest"
	Timeout time.Duration // http client timeout
}

// MistralClient implements Extractor against the Mistral OCR endpoint.
type MistralClient struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewMistralClient(cfg Config, logger *slog.Logger) *MistralClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MISTRAL_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-ocr-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MistralClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Extract sends the document as a base64 data URL and joins the per-page markdown.
func (c *MistralClient) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("ocr.extract.start",
		"req_id", rid, "model", c.cfg.Model, "mime_type", mimeType, "bytes", len(data))

	if mimeType == "" {
		mimeType = "application/pdf"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	body := map[string]any{
		"model": c.cfg.Model,
		"document": map[string]any{
			"type":         "document_url",
			"document_url": dataURL,
		},
		"include_image_base64": false,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/ocr"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ocr.extract.http_error", "req_id", rid, "error", err)
		return Result{}, fmt.Errorf("mistral http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("mistral response body close error", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read mistral response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ocr.extract.status_error", "req_id", rid, "status", resp.StatusCode)
		return Result{}, fmt.Errorf("mistral status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Pages []struct {
			Markdown string `json:"markdown"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("decode mistral response: %w", err)
	}

	parts := make([]string, 0, len(out.Pages))
	for _, p := range out.Pages {
		parts = append(parts, p.Markdown)
	}
	res := Result{
		Markdown: strings.TrimSpace(strings.Join(parts, "\n\n")),
		Pages:    len(out.Pages),
		Model:    c.cfg.Model,
		Duration: time.Since(start),
	}
	c.logger.Info("ocr.extract.ok",
		"req_id", rid, "pages", res.Pages, "markdown_len", len(res.Markdown),
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
