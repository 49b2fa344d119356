// README: Push notification sink contract.
package notify

import (
	"context"

	"wander/internal/types"
)

// Notification is a user-facing push message.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sink delivers notifications to a user's device. Delivery is best effort;
// callers log failures and move on.
type Sink interface {
	Push(ctx context.Context, user types.ID, note Notification) error
}
