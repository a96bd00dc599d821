package ports

import "context"

// EventPublisher publishes auth events to notify other instances
type EventPublisher interface {
	// PublishLogin announces a completed authentication
	PublishLogin(ctx context.Context, userID string) error

	// PublishTwoFactorChanged announces that 2FA was enabled or disabled
	PublishTwoFactorChanged(ctx context.Context, userID string, enabled bool) error
}
