package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jhoicas/evidenta-api/internal/application/ports"
)

// webhookPayload cuerpo JSON que recibe el servicio de correo.
type webhookPayload struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Context   map[string]string `json:"context"`
}

// WebhookNotifier entrega la notificación por POST a un servicio externo de correo.
type WebhookNotifier struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookNotifier(url, token string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{url: url, token: token, client: client}
}

func (w *WebhookNotifier) Notify(ctx context.Context, n ports.Notification) error {
	payload := webhookPayload{
		Template:  string(n.Template),
		Recipient: n.Recipient,
		Context:   map[string]string{"full_name": n.FullName},
	}
	if n.Link != "" {
		payload.Context["link"] = n.Link
	}
	if n.Code != "" {
		payload.Context["code"] = n.Code
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: respuesta %d", resp.StatusCode)
	}
	return nil
}
