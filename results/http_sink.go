package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPSink posts rows to a results Server.
type HTTPSink struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPSink creates a sink for the server at baseURL.
func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{BaseURL: strings.TrimSuffix(baseURL, "/"), HTTPClient: http.DefaultClient}
}

// Append implements Sink.
func (h *HTTPSink) Append(ctx context.Context, r Row) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toJSON(r)); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/rows", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("results server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		bs, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("results server %d: %s", resp.StatusCode, strings.TrimSpace(string(bs)))
	}
	return nil
}
