// Package notifier sends device push notifications to coordinators.
package notifier

import (
	"context"
	"fmt"
	"log"

	"intern_certify_v1/model"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
)

// MessageSender is the part of the FCM client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type CoordinatorLookup interface {
	FindByID(ctx context.Context, id uint) (*model.Coordinator, error)
}

type Pusher struct {
	client       MessageSender
	coordinators CoordinatorLookup
}

func NewPusher(client MessageSender, coordinators CoordinatorLookup) *Pusher {
	return &Pusher{client: client, coordinators: coordinators}
}

// NewFirebasePusher builds a Pusher from an initialized Firebase app.
func NewFirebasePusher(ctx context.Context, app *firebase.App, coordinators CoordinatorLookup) (*Pusher, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Messaging client: %w", err)
	}
	return NewPusher(client, coordinators), nil
}

// NotifyCoordinator pushes to the coordinator's registered device. Coordinators
// without a token are skipped silently.
func (p *Pusher) NotifyCoordinator(ctx context.Context, coordinatorID uint, title, body string) error {
	coord, err := p.coordinators.FindByID(ctx, coordinatorID)
	if err != nil {
		return fmt.Errorf("loading coordinator %d: %w", coordinatorID, err)
	}
	if coord.FCMToken == "" {
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Token: coord.FCMToken,
	}

	id, err := p.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	log.Printf("[PUSH] sent notification %s to coordinator %d", id, coordinatorID)
	return nil
}
