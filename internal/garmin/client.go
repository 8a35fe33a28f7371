// Package garmin is an HTTP client for the Garmin Connect activity API.
package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/briangreenhill/gpxfetch/internal/activity"
)

const (
	defaultBaseURL = "https://connect.garmin.com"
	pageSize       = 100
)

// Client talks to Garmin Connect. It reuses tokens persisted under tokenDir
// and only falls back to a credential login when no usable token exists.
type Client struct {
	baseURL  string
	email    string
	password string
	tokenDir string
	http     *http.Client
	token    TokenInfo
	logger   *slog.Logger
}

func NewClient(baseURL, tokenDir, email, password string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		email:    email,
		password: password,
		tokenDir: tokenDir,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// ensureAuth makes sure the client holds a usable access token: stored
// tokens are reused, expired ones refreshed, and only as a last resort are
// the configured credentials exchanged for a fresh token pair.
func (c *Client) ensureAuth(ctx context.Context) error {
	if c.token.AccessToken != "" && time.Now().Before(c.token.ExpiresAt) {
		return nil
	}

	if err := c.loadToken(); err == nil {
		if time.Now().Before(c.token.ExpiresAt) {
			return nil
		}
		if err := c.refreshToken(ctx); err == nil {
			return nil
		}
		c.logger.Debug("Token refresh failed, falling back to credential login")
	}

	if c.email == "" || c.password == "" {
		return fmt.Errorf("%w: no stored token and no credentials configured", ErrAuthentication)
	}

	return c.Login(ctx)
}

// Login exchanges the configured credentials for a token pair and persists
// it for later runs.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.email)
	form.Set("password", c.password)

	tok, err := c.requestToken(ctx, form)
	if err != nil {
		return err
	}
	c.token = tok

	if err := c.saveToken(); err != nil {
		c.logger.Warn("Could not persist token", slog.Any("error", err))
	}

	return nil
}

func (c *Client) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.token.RefreshToken)

	tok, err := c.requestToken(ctx, form)
	if err != nil {
		return err
	}
	c.token = tok

	if err := c.saveToken(); err != nil {
		c.logger.Warn("Could not persist refreshed token", slog.Any("error", err))
	}

	return nil
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return TokenInfo{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return TokenInfo{}, fmt.Errorf("%w: token endpoint returned %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return TokenInfo{}, fmt.Errorf("%w: token endpoint returned %d: %s", ErrNetwork, resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: decoding token response: %v", ErrNetwork, err)
	}

	return TokenInfo{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

// activityDTO mirrors the activity search endpoint's JSON.
type activityDTO struct {
	ActivityID   int64  `json:"activityId"`
	ActivityName string `json:"activityName"`
	ActivityType struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
	StartLatitude  float64 `json:"startLatitude"`
	StartLongitude float64 `json:"startLongitude"`
	BeginTimestamp int64   `json:"beginTimestamp"` // milliseconds since epoch
}

func (d activityDTO) toActivity() activity.Activity {
	return activity.Activity{
		ID:   strconv.FormatInt(d.ActivityID, 10),
		Name: d.ActivityName,
		Type: d.ActivityType.TypeKey,
		Start: activity.Coordinate{
			Lat: d.StartLatitude,
			Lon: d.StartLongitude,
		},
		BeginTime: time.UnixMilli(d.BeginTimestamp),
	}
}

// List returns every recorded activity, most recent first, paging through
// the activity search endpoint.
func (c *Client) List(ctx context.Context) ([]activity.Activity, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return nil, err
	}

	var all []activity.Activity
	for start := 0; ; start += pageSize {
		page, err := c.listPage(ctx, start, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, start, limit int) ([]activity.Activity, error) {
	endpoint := fmt.Sprintf("%s/activitylist-service/activities/search/activities?start=%d&limit=%d",
		c.baseURL, start, limit)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "activity list"); err != nil {
		return nil, err
	}

	var dtos []activityDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("%w: decoding activity list: %v", ErrNetwork, err)
	}

	page := make([]activity.Activity, 0, len(dtos))
	for _, d := range dtos {
		page = append(page, d.toActivity())
	}
	return page, nil
}

// DownloadGPX fetches the GPX export for one activity.
func (c *Client) DownloadGPX(ctx context.Context, id string) ([]byte, error) {
	if err := c.ensureAuth(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/download-service/export/gpx/activity/%s", c.baseURL, id)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: activity %s", ErrNotFound, id)
	}
	if err := c.checkStatus(resp, "gpx download"); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading gpx body: %v", ErrNetwork, err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response, what string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrAuthentication, what, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s returned %d", ErrNetwork, what, resp.StatusCode)
	}
	return nil
}
