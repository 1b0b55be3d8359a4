package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wirelive/multihost-service/internal/protocol"
)

// SeatClient wraps the Room Service seat negotiation HTTP endpoint. Every
// seat action is delivered as a POST against the counterpart user; the
// service assigns the process id that correlates the action with later
// peer messages.
type SeatClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// seatResponse represents the API response wrapper.
type seatResponse struct {
	Success bool `json:"success"`
	Data    int  `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewSeatClient creates a new Room Service seat client. token is passed
// through as-is on every request.
func NewSeatClient(baseURL, token string) *SeatClient {
	return &SeatClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers one seat action addressed to counterpartID in roomID and
// returns the process id the service assigned to it.
func (c *SeatClient) Send(ctx context.Context, action protocol.Action, seatIndex int, counterpartID, roomID string) (int, error) {
	body, err := json.Marshal(protocol.NewSeatRequest(action, seatIndex))
	if err != nil {
		return 0, fmt.Errorf("failed to encode seat request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/users/%s/rooms/%s/seats", c.baseURL, counterpartID, roomID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send %s action: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("room service returned status: %d", resp.StatusCode)
	}

	var seatResp seatResponse
	if err := json.NewDecoder(resp.Body).Decode(&seatResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if !seatResp.Success {
		if seatResp.Error != nil {
			return 0, fmt.Errorf("room service error: %s: %s", seatResp.Error.Code, seatResp.Error.Message)
		}
		return 0, fmt.Errorf("room service rejected %s action", action)
	}

	return seatResp.Data, nil
}
