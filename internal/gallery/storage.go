package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/config"
	"ms-gallery/internal/logger"
)

// StorageClient lists objects through a Supabase-compatible storage API.
// Listings are a single call bounded by limit; pagination is not followed.
type StorageClient struct {
	baseURL string
	apiKey  string
	bucket  string
	limit   int
	http    *http.Client
	logger  *logger.Logger
}

func NewStorageClient(cfg config.StorageConfig, httpClient *http.Client, log *logger.Logger) *StorageClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := cfg.ListLimit
	if limit <= 0 {
		limit = 1000
	}
	return &StorageClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		bucket:  cfg.Bucket,
		limit:   limit,
		http:    httpClient,
		logger:  log,
	}
}

type sortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy sortBy `json:"sortBy"`
}

func (c *StorageClient) List(ctx context.Context, prefix string) ([]StorageObject, error) {
	if c.baseURL == "" {
		return nil, &apperr.StorageError{Op: "list " + prefix, Err: errors.New("STORAGE_URL not set")}
	}

	body, err := json.Marshal(listRequest{
		Prefix: prefix,
		Limit:  c.limit,
		Offset: 0,
		SortBy: sortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode list request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, url.PathEscape(c.bucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.StorageError{Op: "list " + prefix, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.StorageError{Op: "list " + prefix, Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("STORAGE", fmt.Sprintf("Failed to close list response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &apperr.StorageError{
			Op:  "list " + prefix,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var objects []StorageObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, &apperr.StorageError{Op: "list " + prefix, Err: fmt.Errorf("decode listing: %w", err)}
	}
	if len(objects) >= c.limit {
		c.logger.Warn("STORAGE", fmt.Sprintf("Listing of %q hit the limit of %d entries, results may be truncated", prefix, c.limit))
	}

	c.logger.Debug("STORAGE", fmt.Sprintf("Listed %d objects under %q", len(objects), prefix))
	return objects, nil
}
