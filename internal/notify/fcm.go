// README: FCM implementation of the notification sink.
package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"wander/internal/types"
)

// TokenSource resolves a user's current FCM device token. An empty token
// means the user has no registered device.
type TokenSource interface {
	DeviceToken(ctx context.Context, user types.ID) (string, error)
}

// FCMSink sends notifications through Firebase Cloud Messaging.
type FCMSink struct {
	msgClient *messaging.Client
	tokens    TokenSource
}

// NewFCMSink initialises the Firebase Admin SDK messaging client.
// If credentialsFile is non-empty it is used as the service-account JSON
// path; otherwise application-default credentials are used.
func NewFCMSink(ctx context.Context, credentialsFile string, tokens TokenSource) (*FCMSink, error) {
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase app: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &FCMSink{msgClient: msgClient, tokens: tokens}, nil
}

func (s *FCMSink) Push(ctx context.Context, user types.ID, note Notification) error {
	token, err := s.tokens.DeviceToken(ctx, user)
	if err != nil {
		return fmt.Errorf("resolving device token for user %s: %w", string(user), err)
	}
	if token == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: token,
		Data:  note.Data,
		Notification: &messaging.Notification{
			Title: note.Title,
			Body:  note.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if _, err := s.msgClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM to user %s: %w", string(user), err)
	}
	return nil
}
