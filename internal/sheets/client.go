package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Payload mirrors one logged record to the spreadsheet webhook (a
// Google Apps Script web app accumulating rows per month). sentAt
// travels as ISO-8601; the shared secret rides inside the JSON body.
type Payload struct {
	UserName          string `json:"userName"`
	AccountLink       string `json:"accountLink"`
	BusinessType      string `json:"businessType"`
	FollowerRange     string `json:"followerRange"`
	HasChampagne      bool   `json:"hasChampagne"`
	HasChampagneTower bool   `json:"hasChampagneTower"`
	Date              string `json:"date"`
	Month             string `json:"month"`
	SentAt            string `json:"sentAt"`
	Secret            string `json:"secret,omitempty"`
}

type Client struct {
	hc     *http.Client
	url    string
	secret string
	log    *zap.Logger
}

func New(webhookURL, secret string, log *zap.Logger) *Client {
	return &Client{
		hc:     &http.Client{Timeout: 3 * time.Second},
		url:    strings.TrimSpace(webhookURL),
		secret: secret,
		log:    log,
	}
}

// Enabled reports whether a webhook URL is configured. Without one,
// sync is skipped silently.
func (c *Client) Enabled() bool { return c.url != "" }

// Send posts one record as application/x-www-form-urlencoded with a
// single "data" field holding the JSON payload. The form encoding
// keeps the Apps Script deployment free of CORS preflight handling.
// No retry: the document store is the authoritative record.
func (c *Client) Send(ctx context.Context, p Payload) error {
	if !c.Enabled() {
		return nil
	}
	p.Secret = c.secret

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("data", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= 400 {
		return fmt.Errorf("sheet webhook status %d", res.StatusCode)
	}
	return nil
}

// SendAsync mirrors the record on a detached goroutine and discards
// the outcome by contract; a failure surfaces only at debug level and
// is never shown to the worker.
func (c *Client) SendAsync(p Payload) {
	if !c.Enabled() {
		return
	}
	go func() {
		if err := c.Send(context.Background(), p); err != nil {
			c.log.Debug("sheet sync failed", zap.Error(err))
		}
	}()
}
