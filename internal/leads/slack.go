package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"github.com/soyeahso/concierge/internal/domain"
)

// SlackNotifier posts new leads to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a notifier for the given webhook URL. A nil
// client uses a default with a 10s timeout.
func NewSlackNotifier(webhookURL string, client *http.Client) *SlackNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackNotifier{webhookURL: webhookURL, client: client}
}

// Notify sends one message per lead.
func (s *SlackNotifier) Notify(ctx context.Context, l domain.Lead) error {
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, leadMessage(l)); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func leadMessage(l domain.Lead) *slack.WebhookMessage {
	page := l.Context
	if page == "" {
		page = "-"
	}
	return &slack.WebhookMessage{
		Text: fmt.Sprintf(":calendar: Novo lead pediu reunião (página %s)", page),
		Attachments: []slack.Attachment{{
			Color:    "#0f766e",
			Fallback: l.Summary(),
			Fields: []slack.AttachmentField{
				{Title: "Mensagem", Value: l.Message},
				{Title: "Resposta do assistente", Value: l.Reply},
				{Title: "Página", Value: page, Short: true},
				{Title: "Sessão", Value: l.SessionID, Short: true},
			},
			Ts: json.Number(strconv.FormatInt(l.CreatedAt.Unix(), 10)),
		}},
	}
}
