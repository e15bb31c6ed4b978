package batch

import (
	"context"

	"github.com/samvad-hq/sammi-go/pkg/publishers"
	"github.com/samvad-hq/sammi-go/pkg/sammi"
)

// Sender performs one SAMMI call.
type Sender interface {
	SendRequest(ctx context.Context, d *sammi.Descriptor) sammi.Result
}

// EventPublisher publishes dispatch outcomes downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Journal records delivered run-once entries.
type Journal interface {
	Delivered(id string) (bool, error)
	MarkDelivered(id string) error
}
