package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/oxydem/authgate/ports"
)

// LoginEvent announces a completed authentication
type LoginEvent struct {
	UserID string `json:"user_id"`
}

// TwoFactorEvent announces a change to a user's 2FA enrollment
type TwoFactorEvent struct {
	UserID  string `json:"user_id"`
	Enabled bool   `json:"enabled"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher      message.Publisher
	loginTopic     string
	twoFactorTopic string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher:      publisher,
		loginTopic:     "authgate.login",
		twoFactorTopic: "authgate.two_factor",
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID string) error {
	return p.publish(p.loginTopic, LoginEvent{UserID: userID})
}

// PublishTwoFactorChanged publishes a 2FA enrollment change event
func (p *WatermillPublisher) PublishTwoFactorChanged(ctx context.Context, userID string, enabled bool) error {
	return p.publish(p.twoFactorTopic, TwoFactorEvent{UserID: userID, Enabled: enabled})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
