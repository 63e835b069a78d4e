// Package alert sends best-effort operator notifications (signal, open,
// close, error, circuit-breaker, shutdown alerts). Grounded on trader.go's
// postSlack: fire-and-forget, short timeout, failures are swallowed.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Transport delivers a single alert message. Implementations must not block
// the caller beyond a short bounded timeout.
type Transport interface {
	Send(msg string)
}

// LogTransport writes alerts to the standard logger, matching the teacher's
// "[INFO]"/"[WARN]" breadcrumb convention. It is the always-on default so an
// alert is never silently dropped even with no webhook configured.
type LogTransport struct{}

func (LogTransport) Send(msg string) {
	log.Printf("[ALERT] %s", msg)
}

// SlackTransport posts to a Slack incoming webhook, ported from
// trader.go's postSlack with the same 3s timeout and swallow-errors policy.
type SlackTransport struct {
	WebhookURL string
	Client     *http.Client
}

func NewSlackTransport(webhookURL string) *SlackTransport {
	return &SlackTransport{WebhookURL: webhookURL, Client: http.DefaultClient}
}

func (s *SlackTransport) Send(msg string) {
	if s.WebhookURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	body, _ := json.Marshal(map[string]string{"text": msg})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	_, _ = client.Do(req)
}

// Multi fans a single alert out to every configured transport.
type Multi struct {
	Transports []Transport
}

func (m Multi) Send(msg string) {
	for _, t := range m.Transports {
		t.Send(msg)
	}
}

// New builds the standard transport chain: log always, plus Slack if a
// webhook URL is configured.
func New(slackWebhookURL string) Transport {
	transports := []Transport{LogTransport{}}
	if slackWebhookURL != "" {
		transports = append(transports, NewSlackTransport(slackWebhookURL))
	}
	return Multi{Transports: transports}
}
