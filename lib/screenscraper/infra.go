package screenscraper

import (
	"context"
	"encoding/json"
	"fmt"
)

// InfraInfoResponse is the complete response for the infrastructure info endpoint
type InfraInfoResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Servers ServerInfo `json:"serveurs"`
	} `json:"response"`
}

// GetInfraInfo retrieves infrastructure/server information (ssinfraInfos.php).
// Provides server CPU usage, API access counts, thread limits, and API closure status.
// This information helps clients understand server load and make decisions about request rates.
func (c *Client) GetInfraInfo(ctx context.Context) (*InfraInfoResponse, error) {
	body, err := c.get(ctx, "ssinfraInfos.php", nil)
	if err != nil {
		return nil, err
	}

	var resp InfraInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse infra info response: %w", err)
	}

	if err := validateResponse(resp.Header); err != nil {
		return nil, err
	}

	return &resp, nil
}
