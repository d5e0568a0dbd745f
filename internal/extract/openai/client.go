package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a12042020/contract-analyzer/internal/extract"
)

// ExtractFields implements extract.FieldExtractor using text-only chat/completions.
// The document text is expected to be markdown (OCR output or native markdown).
func (c *Client) ExtractFields(ctx context.Context, content string) (extract.ContractFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(content),
	)

	schema := extract.BuildContractJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": extractSystemPrompt},
			{"role": "user", "content": content + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	raw, err := c.chat(ctx, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.ContractFields{}, nil, err
	}

	rawContent := []byte(raw)
	if err := extract.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", raw,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.ContractFields{}, rawContent, fmt.Errorf("schema validation failed: %w", err)
	}

	var out extract.ContractFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.ContractFields{}, rawContent, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"title", out.Title,
		"parties", len(out.Parties),
		"risks", len(out.Risks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

// Summarize turns an extracted-contract JSON payload into a markdown risk summary.
func (c *Client) Summarize(ctx context.Context, extractedJSON string) (string, error) {
	return c.complete(ctx, "llm.summarize", summarizeSystemPrompt, extractedJSON)
}

// AnalyzePolicy checks extracted contract data against a reference policy
// document and returns a markdown compliance analysis.
func (c *Client) AnalyzePolicy(ctx context.Context, extractedJSON, policy string) (string, error) {
	user := "Contract data:\n" + extractedJSON + "\n\nReference policy:\n" + policy
	return c.complete(ctx, "llm.policy_analysis", policySystemPrompt, user)
}

func (c *Client) complete(ctx context.Context, event, system, user string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info(event+".start", "req_id", rid, "model", c.cfg.Model, "text_len", len(user))

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	out, err := c.chat(ctx, body)
	if err != nil {
		c.logger.Error(event+".http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	c.logger.Info(event+".ok", "req_id", rid, "out_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// chat posts a chat/completions request and returns the first choice's content.
func (c *Client) chat(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

const extractSystemPrompt = "You are a legal contract analyst. Return ONLY JSON that matches the JSON Schema provided. " +
	"Identify the parties and their roles, effective and expiration dates (ISO-8601 YYYY-MM-DD), governing law, " +
	"contract value with a 3-letter ISO 4217 currency code, payment terms, liability caps, termination clauses, " +
	"the principal obligations of each party, and contractual risks. " +
	"For each risk give a category (e.g. liability, termination, payment, IP, data-protection), a short description, " +
	"and a severity of LOW, MEDIUM, or HIGH. Do not invent facts that are not in the document."

const summarizeSystemPrompt = "You are a legal contract analyst. You receive structured contract data as JSON. " +
	"Write a concise markdown summary for a business reader: what the contract is, who the parties are, " +
	"the key commercial terms, and a short ranked list of the identified risks with their severity. " +
	"Be factual; do not speculate beyond the provided data."

const policySystemPrompt = "You are a legal contract analyst. You receive structured contract data as JSON and a " +
	"reference policy document in markdown. Produce a markdown compliance analysis: for each policy requirement, " +
	"state whether the contract complies, conflicts, or is silent, citing the relevant contract fields. " +
	"Finish with an overall assessment and the points that need negotiation."
