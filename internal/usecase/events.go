package usecase

import "context"

// Event types published to the notification collaborator. Delivery is
// fire-and-forget; the engine never blocks a transition on it.
const (
	EventParticipantAdmitted = "participant.admitted"
	EventChallengeActivated  = "challenge.activated"
)

// EventPublisher hands engine events to the external notification service.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any, dedupID string) error
}

// NopPublisher drops events. Used when no notification target is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any, string) error { return nil }
