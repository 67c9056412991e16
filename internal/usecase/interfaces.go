package usecase

import (
	"context"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/logger"
)

type EventPublisher interface {
	Publish(ctx context.Context, event entity.DomainEvent) error
}

// publish is best effort: the state change is already committed, so a broker
// failure is logged and never returned to the caller.
func publish(ctx context.Context, events EventPublisher, event entity.DomainEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish %s for %s: %v", event.Type, event.EntityID, err)
	}
}
