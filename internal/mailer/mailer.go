package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clubsite/club-api/internal/config"
)

// Email is one outbound message for the transactional provider.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer sends a single email. Implementations must be safe for concurrent
// use; carpool dispatch fans sends out across goroutines.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// HTTPMailer talks to the transactional email provider's JSON API.
type HTTPMailer struct {
	providerURL string
	apiKey      string
	from        string
	client      *http.Client
}

func NewHTTPMailer(cfg *config.Config) *HTTPMailer {
	return &HTTPMailer{
		providerURL: cfg.MailProviderURL,
		apiKey:      cfg.MailAPIKey,
		from:        cfg.MailFrom,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, email Email) error {
	if m.providerURL == "" {
		return fmt.Errorf("mail provider URL is empty")
	}
	if m.apiKey == "" {
		return fmt.Errorf("mail API key is empty")
	}

	payload := struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.providerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return nil
}
