package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/samirrijal/dropspots/internal/core/ports"
	"github.com/samirrijal/dropspots/internal/pkg/metrics"
)

// Sender is the part of *messaging.Client the notifier uses.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Notifier implements ports.NotificationService over Firebase Cloud
// Messaging, fanning out to every device a user registered.
type Notifier struct {
	sender  Sender
	devices ports.DeviceRepository
}

// NewMessagingClient initialises Firebase from a service-account file.
func NewMessagingClient(ctx context.Context, credentialsFile, projectID string) (*messaging.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return client, nil
}

// NewNotifier creates a Notifier.
func NewNotifier(sender Sender, devices ports.DeviceRepository) *Notifier {
	return &Notifier{sender: sender, devices: devices}
}

// SendPush delivers a notification to all of userID's devices. Tokens that
// FCM reports as unregistered are removed.
func (n *Notifier) SendPush(ctx context.Context, userID, title, body string) error {
	devices, err := n.devices.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.Token
	}

	resp, err := n.sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		metrics.PushMessages.WithLabelValues(metrics.ResultError).Add(float64(len(tokens)))
		return fmt.Errorf("fcm multicast: %w", err)
	}

	metrics.PushMessages.WithLabelValues(metrics.ResultOK).Add(float64(resp.SuccessCount))
	metrics.PushMessages.WithLabelValues(metrics.ResultError).Add(float64(resp.FailureCount))

	var dead []string
	for i, r := range resp.Responses {
		if r.Success || i >= len(tokens) {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			dead = append(dead, tokens[i])
		} else {
			slog.Warn("push delivery failed", "user_id", userID, "error", r.Error)
		}
	}

	if len(dead) > 0 {
		if err := n.devices.DeleteTokens(ctx, dead); err != nil {
			slog.Warn("prune device tokens", "count", len(dead), "error", err)
		}
	}

	if resp.SuccessCount == 0 {
		return fmt.Errorf("fcm: no device accepted the message (%d failures)", resp.FailureCount)
	}
	return nil
}
