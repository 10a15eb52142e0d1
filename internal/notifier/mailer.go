package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPMailer sends mail through an HTTP provider endpoint. Any 2xx
// response counts as accepted; everything else is an error for the
// worker's retry machinery.
type HTTPMailer struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

func NewHTTPMailer(endpoint, apiKey, sender string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		sender:   sender,
		client:   &http.Client{Timeout: timeout},
	}
}

type mailPayload struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func (m *HTTPMailer) Send(ctx context.Context, messageID, recipient, subject, body string) error {
	payload := mailPayload{
		MessageID: messageID,
		From:      m.sender,
		To:        recipient,
		Subject:   subject,
		Body:      body,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail endpoint returned %d", resp.StatusCode)
	}
	return nil
}
