package garmin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// TokenInfo stores token data with its expiry time.
type TokenInfo struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// tokenResponse is the OAuth token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (c *Client) tokenFile() string {
	return filepath.Join(c.tokenDir, "token_info.json")
}

func (c *Client) loadToken() error {
	data, err := os.ReadFile(c.tokenFile())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &c.token)
}

func (c *Client) saveToken() error {
	if err := os.MkdirAll(c.tokenDir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.tokenFile(), data, 0600)
}
