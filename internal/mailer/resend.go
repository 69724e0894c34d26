package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultResendURL = "https://api.resend.com/emails"

// ResendSender posts messages to the Resend email API.
type ResendSender struct {
	url    string
	apiKey string
	client *http.Client
}

func NewResendSender(url, apiKey string, timeout time.Duration) *ResendSender {
	if url == "" {
		url = DefaultResendURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendSender{url: url, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(resendRequest{From: msg.From, To: msg.To, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return "", fmt.Errorf("marshal email request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read email response: %w", err)
	}
	var out resendResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return "", fmt.Errorf("email provider returned %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("email provider returned %d", resp.StatusCode)
	}
	return out.ID, nil
}
