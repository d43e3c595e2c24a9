package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"deardiary/internal/logging"
)

// TwilioConfig configures the Twilio SMS sender.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string // optional, defaults to the Twilio API
}

// twilioNotifier implements Notifier against the Twilio Messages API.
type twilioNotifier struct {
	config     TwilioConfig
	httpClient *http.Client
	logger     logging.Logger
}

// NewTwilioNotifier creates an SMS notifier backed by Twilio.
func NewTwilioNotifier(config TwilioConfig) (Notifier, error) {
	if config.AccountSID == "" || config.AuthToken == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}
	if config.FromNumber == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.twilio.com"
	}
	return &twilioNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewComponentLogger("twilio"),
	}, nil
}

// SendSMS sends one message through the Twilio Messages API.
func (n *twilioNotifier) SendSMS(ctx context.Context, to, message string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient number is required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.config.FromNumber)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(n.config.BaseURL, "/"), n.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.config.AccountSID, n.config.AuthToken)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio error %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}
