package providers

import (
	"context"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
)

// ChannelPrescriptionProcessed carries one event per completed run.
const ChannelPrescriptionProcessed = "prescriptions.processed"

// EventBus publishes run lifecycle events to downstream consumers
// (notifications, dashboards).
type EventBus interface {
	Publish(ctx context.Context, channel string, event *entities.ProcessedEvent) error
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ProcessedEvent, error)
	Close() error
}
