package reauthnotif

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"

	"gbbackend/models"
)

// Notifier posts a Slack webhook message when a user's provider connection
// needs manual reauthorization (refresh token window closed). It implements
// services.ReauthNotifier.
type Notifier struct {
	webhookURL  string
	environment string
	appName     string
}

func NewNotifier(webhookURL, environment string) *Notifier {
	return &Notifier{
		webhookURL:  webhookURL,
		environment: environment,
		appName:     "GigBooks",
	}
}

// NotifyReauthRequired fires the webhook asynchronously so callers (the
// sweep) are never blocked on Slack.
func (n *Notifier) NotifyReauthRequired(userID string, provider models.Provider) {
	if n.webhookURL == "" {
		return // Reauth notifications disabled
	}

	go n.send(userID, provider)
}

func (n *Notifier) send(userID string, provider models.Provider) {
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", n.appName), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", n.environment), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*UserID:* `%s`", userID), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Provider:* %s", provider), false, false),
		slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("*Timestamp:* %s", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")),
			false,
			false,
		),
	}

	msg := &slack.WebhookMessage{
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(nil, fields, nil),
				slack.NewSectionBlock(
					slack.NewTextBlockObject(
						slack.MarkdownType,
						fmt.Sprintf(
							"🔑 *Reauthorization required:*\nuser %s must reconnect %s - refresh token expired",
							userID,
							provider,
						),
						false,
						false,
					),
					nil,
					nil,
				),
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		log.Printf("❌ Failed to send reauth notification for user %s (%s): %v", userID, provider, err)
		return
	}

	log.Printf("🔑 Reauth notification sent for user %s (%s)", userID, provider)
}
