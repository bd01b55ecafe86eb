package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed    = 16711680 // #FF0000 - critical
	ColorGreen  = 65280    // #00FF00 - recovered
	ColorOrange = 16753920 // #FFA500 - warning

	Username = "Eden Monitor"
)

// WebhookNotifier posts alerts to Slack and Discord incoming webhooks. An
// empty URL disables that channel.
type WebhookNotifier struct {
	SlackURL   string
	DiscordURL string
	Client     *http.Client
}

func NewWebhookNotifier(slackURL, discordURL string) *WebhookNotifier {
	return &WebhookNotifier{
		SlackURL:   slackURL,
		DiscordURL: discordURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	if n.DiscordURL != "" {
		if err := n.post(ctx, n.DiscordURL, discordPayload(alert)); err != nil {
			return fmt.Errorf("discord: %w", err)
		}
	}

	if n.SlackURL != "" {
		if err := n.post(ctx, n.SlackURL, slackPayload(alert)); err != nil {
			return fmt.Errorf("slack: %w", err)
		}
	}

	return nil
}

func alertTitle(alert Alert) string {
	switch {
	case alert.Recovered:
		return "CHECK RECOVERED"
	case alert.Status == "warning":
		return "CHECK WARNING"
	default:
		return "CHECK FAILED"
	}
}

func discordPayload(alert Alert) DiscordWebhookRequest {
	color := ColorRed
	switch {
	case alert.Recovered:
		color = ColorGreen
	case alert.Status == "warning":
		color = ColorOrange
	}

	server := alert.Server
	if server == "" {
		server = "-"
	}

	return DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**" + alertTitle(alert) + "**",
				Description: fmt.Sprintf("Check **%s** on task %d reported %s.", alert.Function, alert.TaskID, alert.Status),
				Color:       color,
				Fields: []DiscordWebhookField{
					{Name: "Check", Value: alert.Function, Inline: true},
					{Name: "Server", Value: server, Inline: true},
					{Name: "Status", Value: "**" + alert.Status + "**", Inline: true},
					{Name: "Result", Value: alert.Message, Inline: false},
					{Name: "Run", Value: fmt.Sprintf("%d", alert.RunID), Inline: true},
				},
				Footer:    &DiscordFooter{Text: "Alert " + alert.ID},
				Timestamp: alert.OccurredAt.Format(time.RFC3339),
			},
		},
	}
}

func slackPayload(alert Alert) SlackWebhookRequest {
	color, emoji := "danger", ":rotating_light:"
	switch {
	case alert.Recovered:
		color, emoji = "good", ":white_check_mark:"
	case alert.Status == "warning":
		color, emoji = "warning", ":warning:"
	}

	return SlackWebhookRequest{
		Username:  Username,
		IconEmoji: emoji,
		Text:      fmt.Sprintf("%s *%s*", emoji, alertTitle(alert)),
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: fmt.Sprintf("Check '%s' on task %d", alert.Function, alert.TaskID),
				Text:  alert.Message,
				Fields: []SlackField{
					{Title: "Status", Value: alert.Status, Short: true},
					{Title: "Server", Value: alert.Server, Short: true},
					{Title: "Run", Value: fmt.Sprintf("%d", alert.RunID), Short: true},
				},
				Footer:    "Alert " + alert.ID,
				Timestamp: alert.OccurredAt.Unix(),
			},
		},
	}
}

func (n *WebhookNotifier) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
