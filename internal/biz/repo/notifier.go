package repo

import "context"

// NotifierRepo delivers a text message to a user's channel address.
// Delivery is fire-and-forget from the core's viewpoint: failures are
// logged by callers, not retried here.
type NotifierRepo interface {
	SendText(ctx context.Context, userID, text string) error
}
