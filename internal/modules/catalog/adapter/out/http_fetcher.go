package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	catalogout "mathbot/internal/modules/catalog/port/out"
)

const maxPayloadBytes = 32 << 20

type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher reads GET <base>/lessons/. A zero timeout leaves requests
// bounded only by the caller's context.
func NewHTTPFetcher(baseURL string, timeout time.Duration, client *http.Client) catalogout.Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (f *HTTPFetcher) FetchUnits(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/lessons/", nil)
	if err != nil {
		return nil, fmt.Errorf("build lessons request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch lessons: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch lessons: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read lessons: %w", err)
	}
	payload := struct {
		Unidades json.RawMessage `json:"unidades"`
	}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	units := bytes.TrimSpace(payload.Unidades)
	if len(units) == 0 || bytes.Equal(units, []byte("null")) {
		return []byte("[]"), nil
	}
	return units, nil
}
