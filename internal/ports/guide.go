package ports

import (
	"context"
	"time"

	"github.com/eyalcha/kan-program/internal/domain"
)

// GuideSource récupère le guide d'une station pour un jour donné.
type GuideSource interface {
	Fetch(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error)
}

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
