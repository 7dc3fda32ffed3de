package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/env"
)

const defaultGeneratorTimeout = 60 * time.Second

// Client calls the external document generator. The HTTP timeout bounds
// the one long-running operation in the system: a hang must become a
// generation failure (and a refund), never a stranded credit.
type Client struct {
	Endpoint string
	APIKey   string

	HTTPClient *http.Client
}

type generateResponse struct {
	DocumentURL string `json:"document_url"`
}

// NewClientFromEnv builds a client from DOCGEN_API_URL / DOCGEN_API_KEY,
// with DOCGEN_TIMEOUT_SECONDS overriding the 60s default.
func NewClientFromEnv() *Client {
	timeout := defaultGeneratorTimeout
	if raw := strings.TrimSpace(env.GetEnv("DOCGEN_TIMEOUT_SECONDS", "")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &Client{
		Endpoint: strings.TrimSpace(env.GetEnv("DOCGEN_API_URL", "")),
		APIKey:   strings.TrimSpace(env.GetEnv("DOCGEN_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate renders a document and returns its URL. Any non-2xx status,
// transport failure or response without a document URL is an error.
func (c *Client) Generate(ctx context.Context, payload Payload) (string, error) {
	if strings.TrimSpace(c.Endpoint) == "" {
		return "", errors.New("DOCGEN_API_URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generator payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read generator response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}
	if strings.TrimSpace(parsed.DocumentURL) == "" {
		return "", errors.New("generator response missing document_url")
	}

	return parsed.DocumentURL, nil
}
