package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Mailer delivers transactional email. Delivery is fire-and-forget from
// the request path's point of view: it runs on the notification workers
// and its failures never fail the originating request.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailClient sends email through an HTTP mail API.
type MailClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	from       string
}

// MailMessage is the JSON payload for the mail API.
type MailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// NewMailClient creates a mail client. With an empty apiURL the client
// logs messages instead of sending them, which keeps local development
// working without mail credentials.
func NewMailClient(apiURL, apiKey, from string) *MailClient {
	return &MailClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
	}
}

// Send posts the message to the mail API.
func (c *MailClient) Send(ctx context.Context, to, subject, body string) error {
	if c.apiURL == "" {
		log.Printf("[Mailer] No MAIL_API_URL configured, skipping send: to=%s subject=%q", to, subject)
		return nil
	}

	payload, err := json.Marshal(MailMessage{
		From:    c.from,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, respBody)
	}

	log.Printf("[Mailer] Sent: to=%s subject=%q", to, subject)
	return nil
}
