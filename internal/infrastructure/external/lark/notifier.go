package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// Notifier delivers workflow notifications as Lark rich-text posts addressed by email
type Notifier struct {
	sender MessageSender
	logger *zap.Logger
}

// NewNotifier creates a notifier on top of a message sender
func NewNotifier(sender MessageSender, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger,
	}
}

// Notify implements port.Notifier
func (n *Notifier) Notify(ctx context.Context, kind, recipient string, data map[string]string) error {
	if recipient == "" {
		return fmt.Errorf("recipient cannot be empty")
	}

	content, err := RenderPost(kind, data)
	if err != nil {
		return err
	}

	messageID, err := n.sender.SendMessage(ctx, "email", recipient, "post", content)
	if err != nil {
		return err
	}

	n.logger.Debug("Notification delivered via Lark",
		zap.String("kind", kind),
		zap.String("recipient", recipient),
		zap.String("message_id", messageID))
	return nil
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// RenderPost builds the "post" message content for a notification kind
func RenderPost(kind string, data map[string]string) (string, error) {
	title, lead := headline(kind, data)
	if title == "" {
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}

	body := postBody{Title: title}
	body.Content = append(body.Content, []postElement{{Tag: "text", Text: lead}})

	if comment := data["comment"]; comment != "" {
		body.Content = append(body.Content, []postElement{{Tag: "text", Text: "Comment: " + comment}})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		switch k {
		case "comment", "recipient_name":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if data[k] == "" {
			continue
		}
		body.Content = append(body.Content, []postElement{{Tag: "text", Text: fmt.Sprintf("%s: %s", label(k), data[k])}})
	}

	content, err := json.Marshal(map[string]postBody{"en_us": body})
	if err != nil {
		return "", fmt.Errorf("marshal post content: %w", err)
	}
	return string(content), nil
}

func headline(kind string, data map[string]string) (string, string) {
	greeting := "Hello"
	if name := data["recipient_name"]; name != "" {
		greeting += " " + name
	}

	switch kind {
	case entity.NotificationClaimSentToSupplier:
		return "Claim " + data["claim_number"] + " requires your response",
			greeting + ", a claim has been raised against your company. Please accept or reject it with a comment."
	case entity.NotificationRatingRequested:
		return "Supplier rating requested",
			greeting + ", please rate supplier " + data["supplier_id"] + " for project " + data["project_id"] + "."
	case entity.NotificationRatingCompleted:
		return "New supplier rating",
			fmt.Sprintf("%s, your company has been rated. You have %s days to accept the rating.", greeting, data["acceptance_days"])
	case entity.NotificationRatingAccepted:
		return "Rating accepted",
			greeting + ", supplier " + data["supplier_id"] + " has accepted your rating."
	}
	return "", ""
}

func label(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

var _ port.Notifier = (*Notifier)(nil)
