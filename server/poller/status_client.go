package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusClient reads request statuses over the server's HTTP API. It is what
// a requester's device runs while waiting on guardian approval.
type StatusClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type statusResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (c *StatusClient) CheckStatus(ctx context.Context, requestID string) (string, error) {
	endpoint := fmt.Sprintf("%v/api/check-emergency-status?requestId=%v", c.baseURL, url.QueryEscape(requestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("emergency request %v not found", requestID)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("check status returned %v", resp.StatusCode)
	}

	payload := statusResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	if !payload.Success || payload.Status == "" {
		return "", fmt.Errorf("malformed status response for %v", requestID)
	}

	return payload.Status, nil
}
