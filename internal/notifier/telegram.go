package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	Log      zerolog.Logger

	MaxRetries int
	Backoff    time.Duration // first retry delay, doubled per attempt
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log zerolog.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn().Err(err).Msg("ignoring invalid proxy url")
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Log:        log,
		MaxRetries: 3,
		Backoff:    time.Second,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.endpoint("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// NotificationKind classifies a message about a daily report run.
type NotificationKind string

const (
	KindReport  NotificationKind = "report"
	KindEmpty   NotificationKind = "empty_series"
	KindFailure NotificationKind = "failure"
)

// Notification is a message about the report for one date.
type Notification struct {
	Date string
	Kind NotificationKind
	Text string
}

// Notify sends n, retrying with exponential backoff up to MaxRetries times.
// A report that never reaches the chat is logged with its date so it can be
// re-sent with /report.
func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	log := t.Log.With().Str("date", n.Date).Str("kind", string(n.Kind)).Logger()
	var lastErr error
	for i := 0; i <= t.MaxRetries; i++ {
		err := t.Send(n.Text)
		if err == nil {
			if i > 0 {
				log.Info().Int("attempts", i+1).Msg("report notification delivered after retry")
			}
			return nil
		}
		lastErr = err
		if i == t.MaxRetries {
			break
		}
		backoff := t.Backoff << uint(i)
		log.Warn().Err(err).Int("attempt", i+1).Int("max", t.MaxRetries+1).Dur("backoff", backoff).Msg("report notification failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	log.Error().Err(lastErr).Msg("report notification dropped")
	return fmt.Errorf("notify %s for %s: all %d attempts failed: %w", n.Kind, n.Date, t.MaxRetries+1, lastErr)
}
