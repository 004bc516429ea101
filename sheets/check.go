package sheets

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const checkTimeout = 5 * time.Second

type checkResponse struct {
	Exists bool `json:"exists"`
}

// Exists asks the check endpoint whether a UTR was already recorded. It answers false on any
// failure, the check never blocks a registration.
func (c *Client) Exists(ctx context.Context, upiTxnID string) bool {
	if c.checkURL == "" {
		return false
	}

	u, err := url.Parse(c.checkURL)
	if err != nil {
		c.logger.WarnContext(ctx, "invalid UTR check url", slog.String("error", err.Error()))
		return false
	}
	q := u.Query()
	q.Set("upiTxnId", upiTxnID)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "UTR check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "UTR check returned an error status", slog.Int("status", resp.StatusCode))
		return false
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.WarnContext(ctx, "UTR check returned a malformed body", slog.String("error", err.Error()))
		return false
	}
	return body.Exists
}
