// Package approval calls an external classifier that recommends whether a
// submitted event should be approved. The recommendation is advisory only;
// event status is decided by an admin.
package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/service"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	lg      zerolog.Logger
}

func NewClient(baseURL, apiKey string, lg zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		lg:      lg.With().Str("component", "approval_gate").Logger(),
	}
}

type reviewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

type reviewResponse struct {
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

// Review posts the event content to the classifier. Any transport or
// protocol failure comes back as external_failure; the caller decides what
// an unavailable gate means.
func (c *Client) Review(ctx context.Context, ev *domain.Event) (*service.Advice, error) {
	body, err := json.Marshal(reviewRequest{
		Title:       ev.Title,
		Description: ev.Description,
		Category:    ev.Category,
		Location:    ev.Location,
	})
	if err != nil {
		return nil, domain.ErrExternal("encode review request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/review", bytes.NewReader(body))
	if err != nil {
		return nil, domain.ErrExternal("build review request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.ErrExternal("approval gate unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrExternal(fmt.Sprintf("approval gate returned %d", resp.StatusCode), nil)
	}

	var out reviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.ErrExternal("decode review response", err)
	}

	rec := parseRecommendation(out.Recommendation)
	c.lg.Debug().
		Str("event_id", ev.ID).
		Str("recommendation", string(rec)).
		Msg("review completed")

	return &service.Advice{Recommendation: rec, Reason: out.Reason}, nil
}

// parseRecommendation maps classifier output onto event statuses. Anything
// unrecognized stays pending, which reads as "review manually".
func parseRecommendation(s string) domain.EventStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return domain.EventApproved
	case "reject", "rejected":
		return domain.EventRejected
	default:
		return domain.EventPending
	}
}
