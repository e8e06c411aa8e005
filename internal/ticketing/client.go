package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/config"
	"ms-gallery/internal/logger"

	"golang.org/x/time/rate"
)

const (
	opCreate  = "create listing"
	opPublish = "publish listing"

	utcLayout = "2006-01-02T15:04:05Z"

	// upstream error bodies are kept for diagnosis, capped
	maxErrorBody = 64 << 10
)

// ListingRequest carries the local event fields mirrored to the remote listing.
type ListingRequest struct {
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string
	EventType   string
}

type Listing struct {
	ID  string
	URL string
	Raw map[string]any
}

type Client struct {
	cfg     config.TicketingConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

func NewClient(cfg config.TicketingConfig, httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log,
	}
}

func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

func (c *Client) missing(needOrg bool) error {
	var missing []string
	if c.cfg.APIKey == "" {
		missing = append(missing, "EVENTBRITE_API_KEY")
	}
	if needOrg && c.cfg.OrganizationID == "" {
		missing = append(missing, "EVENTBRITE_ORGANIZATION_ID")
	}
	if len(missing) == 0 {
		return nil
	}
	return &apperr.ConfigurationError{Missing: missing}
}

// CreateListing creates a remote listing under the configured organization.
// The listing is created listed=true, so it can be discoverable remotely
// before the local record is published.
func (c *Client) CreateListing(ctx context.Context, req ListingRequest) (*Listing, error) {
	if err := c.missing(true); err != nil {
		return nil, err
	}

	payload, err := c.buildPayload(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/organizations/%s/events/", c.cfg.BaseURL, url.PathEscape(c.cfg.OrganizationID))
	raw, err := c.post(ctx, opCreate, endpoint, payload)
	if err != nil {
		return nil, err
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, &apperr.RemoteServiceError{
			Operation:  opCreate,
			StatusCode: http.StatusOK,
			Body:       "response has no event id",
		}
	}
	listingURL, _ := raw["url"].(string)

	c.logger.LogTicketing("CREATE", id, fmt.Sprintf("Listing created for %q", req.Title))
	return &Listing{ID: id, URL: listingURL, Raw: raw}, nil
}

func (c *Client) PublishListing(ctx context.Context, externalID string) (map[string]any, error) {
	if err := c.missing(false); err != nil {
		return nil, err
	}
	if externalID == "" {
		return nil, apperr.ErrNoRemoteListing
	}

	endpoint := fmt.Sprintf("%s/events/%s/publish/", c.cfg.BaseURL, url.PathEscape(externalID))
	raw, err := c.post(ctx, opPublish, endpoint, nil)
	if err != nil {
		return nil, err
	}

	c.logger.LogTicketing("PUBLISH", externalID, "Listing published")
	return raw, nil
}

type htmlText struct {
	HTML string `json:"html"`
}

type dateTime struct {
	Timezone string `json:"timezone"`
	UTC      string `json:"utc"`
}

type eventPayload struct {
	Name              htmlText `json:"name"`
	Description       htmlText `json:"description"`
	Start             dateTime `json:"start"`
	End               dateTime `json:"end"`
	Currency          string   `json:"currency"`
	OnlineEvent       bool     `json:"online_event"`
	Listed            bool     `json:"listed"`
	Shareable         bool     `json:"shareable"`
	InviteOnly        bool     `json:"invite_only"`
	ShowRemaining     bool     `json:"show_remaining"`
	Capacity          int      `json:"capacity"`
	IsReservedSeating bool     `json:"is_reserved_seating"`
	IsSeries          bool     `json:"is_series"`
	Locale            string   `json:"locale"`
	CategoryID        string   `json:"category_id"`
}

type createRequest struct {
	Event eventPayload `json:"event"`
}

func (c *Client) buildPayload(req ListingRequest) (createRequest, error) {
	loc, err := time.LoadLocation(c.cfg.Timezone)
	if err != nil {
		return createRequest{}, fmt.Errorf("load timezone %q: %w", c.cfg.Timezone, err)
	}

	start, err := ToUTC(req.Date, req.StartTime, loc)
	if err != nil {
		return createRequest{}, &apperr.ValidationError{Field: "start_time", Reason: err.Error()}
	}
	end, err := ToUTC(req.Date, req.EndTime, loc)
	if err != nil {
		return createRequest{}, &apperr.ValidationError{Field: "end_time", Reason: err.Error()}
	}

	return createRequest{Event: eventPayload{
		Name:              htmlText{HTML: req.Title},
		Description:       htmlText{HTML: req.Description},
		Start:             dateTime{Timezone: c.cfg.Timezone, UTC: start},
		End:               dateTime{Timezone: c.cfg.Timezone, UTC: end},
		Currency:          c.cfg.Currency,
		OnlineEvent:       false,
		Listed:            true,
		Shareable:         true,
		InviteOnly:        false,
		ShowRemaining:     true,
		Capacity:          c.cfg.Capacity,
		IsReservedSeating: false,
		IsSeries:          false,
		Locale:            c.cfg.Locale,
		CategoryID:        CategoryID(req.EventType),
	}}, nil
}

// ToUTC interprets date (YYYY-MM-DD) and clock (HH:MM) as wall time in loc.
func ToUTC(date, clock string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return "", fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	return t.UTC().Format(utcLayout), nil
}

// CategoryID maps a free-form event type to a ticketing category id.
func CategoryID(eventType string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "exhibition", "opening":
		return "105"
	case "workshop":
		return "101"
	case "talk":
		return "102"
	case "performance":
		return "103"
	default:
		return "199"
	}
}

func (c *Client) post(ctx context.Context, op, endpoint string, body any) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &apperr.RemoteServiceError{Operation: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, &apperr.RemoteServiceError{Operation: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("TICKETING", fmt.Sprintf("POST %s", endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("TICKETING", fmt.Sprintf("%s request failed: %v", op, err))
		return nil, &apperr.RemoteServiceError{Operation: op, Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("TICKETING", fmt.Sprintf("Failed to close %s response body: %v", op, err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &apperr.RemoteServiceError{Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("TICKETING", fmt.Sprintf("%s returned status %d: %s", op, resp.StatusCode, string(data)))
		return nil, &apperr.RemoteServiceError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &apperr.RemoteServiceError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return raw, nil
}
