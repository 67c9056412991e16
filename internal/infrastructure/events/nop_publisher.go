package events

import (
	"context"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/logger"
)

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, event entity.DomainEvent) error {
	logger.Debug("Event %s for %s not published: no broker configured", event.Type, event.EntityID)
	return nil
}

func (NopPublisher) Close() error { return nil }
