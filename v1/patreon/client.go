package patreon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ddries/radiobot-rbpwh/pkg/monitoring"
	"github.com/ddries/radiobot-rbpwh/v1/models"
)

// DefaultBaseURL is the Patreon OAuth2 v2 API root
const DefaultBaseURL = "https://www.patreon.com/api/oauth2/v2"

// memberFields is the field selection for the member-detail passthrough query
const memberFields = "campaign_lifetime_support_cents,currently_entitled_amount_cents,email,full_name,is_follower,last_charge_date,last_charge_status,lifetime_support_cents,next_charge_date,note,patron_status,pledge_cadence,pledge_relationship_start,will_pay_amount_cents"

// Client handles communication with the Patreon API
type Client struct {
	// baseURL is the Patreon API root
	baseURL string
	// accessToken is the static creator bearer token
	accessToken string
	// HTTPClient is used to make requests to Patreon
	HTTPClient *http.Client
}

// NewClient creates a new instance of Client
func NewClient(accessToken string) *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		accessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL creates a client against a custom API root, used by tests
func NewClientWithBaseURL(accessToken, baseURL string) *Client {
	c := NewClient(accessToken)
	c.baseURL = baseURL
	return c
}

// setAuthHeader is a helper function to add the creator access token
func (c *Client) setAuthHeader(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
}

// FetchMemberRaw fetches the member detail with user and entitled-tier
// sub-resources and returns the response body verbatim for passthrough.
func (c *Client) FetchMemberRaw(ctx context.Context, memberID string) ([]byte, error) {
	query := url.Values{}
	query.Set("include", "user,currently_entitled_tiers")
	query.Set("fields[member]", memberFields)
	query.Set("fields[user]", "social_connections")

	return c.get(ctx, memberID, query, "member_detail")
}

// FetchMemberConnections fetches the member's connected-account data. Only
// the user include with its social connections is requested.
func (c *Client) FetchMemberConnections(ctx context.Context, memberID string) (*models.MemberConnections, error) {
	query := url.Values{}
	query.Set("include", "user")
	query.Set("fields[user]", "social_connections")

	body, err := c.get(ctx, memberID, query, "member_connections")
	if err != nil {
		return nil, err
	}

	var connections models.MemberConnections
	if err := json.Unmarshal(body, &connections); err != nil {
		return nil, fmt.Errorf("failed to decode member connections: %w", err)
	}

	return &connections, nil
}

// get performs an authenticated GET against the members resource
func (c *Client) get(ctx context.Context, memberID string, query url.Values, operation string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s/members/%s?%s", c.baseURL, url.PathEscape(memberID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuthHeader(req)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	monitoring.RecordExternalCall(ctx, "patreon", operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Patreon: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("patreon returned status %d for member %s", resp.StatusCode, memberID)
	}

	return respBody, nil
}
