package app

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/eyalcha/kan-program/internal/domain"
	"github.com/eyalcha/kan-program/internal/metrics"
	"github.com/eyalcha/kan-program/internal/ports"
)

const (
	TopicGuideRefreshed     = "guide.refreshed"
	TopicGuideRefreshFailed = "guide.refresh_failed"
)

// RefreshEvent est publié sur le bus après chaque tentative de refresh.
type RefreshEvent struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId"`
	Success   bool      `json:"success"`
	ErrorCode string    `json:"errorCode,omitempty"`
	Error     string    `json:"error,omitempty"`
	Entries   int       `json:"entries"`
	At        time.Time `json:"at"`
}

// Coordinator possède le dernier guide connu d'une station.
// Les refresh concurrents (timer, demande manuelle) partagent un seul fetch.
type Coordinator struct {
	logger  zerolog.Logger
	station domain.StationConfig
	source  ports.GuideSource
	bus     ports.EventBus
	now     func() time.Time

	group singleflight.Group
	state atomic.Pointer[domain.RefreshState]
}

func NewCoordinator(logger zerolog.Logger, station domain.StationConfig, source ports.GuideSource, bus ports.EventBus) *Coordinator {
	return &Coordinator{
		logger:  logger.With().Str("station_id", station.StationID).Logger(),
		station: station,
		source:  source,
		bus:     bus,
		now:     time.Now,
	}
}

// WithClock remplace l'horloge (tests).
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Coordinator) Station() domain.StationConfig { return c.station }

// State renvoie l'état courant; nil tant qu'aucun refresh n'a eu lieu.
// La valeur renvoyée ne doit pas être modifiée.
func (c *Coordinator) State() *domain.RefreshState {
	return c.state.Load()
}

func (c *Coordinator) LastUpdateSuccess() bool {
	s := c.state.Load()
	return s != nil && s.LastSuccess
}

// Refresh déclenche un fetch ou rejoint celui en cours. L'échec est enregistré dans
// l'état avant le retour. Si ctx se termine, l'appelant arrête d'attendre mais le
// fetch partagé continue jusqu'à son propre timeout.
func (c *Coordinator) Refresh(ctx context.Context) error {
	ch := c.group.DoChan(c.station.StationID, func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Coordinator) refresh(ctx context.Context) error {
	started := c.now()
	c.logger.Debug().Msg("refreshing guide")

	payload, err := c.source.Fetch(ctx, c.station.StationID, started)
	took := c.now().Sub(started)
	prev := c.state.Load()

	if err != nil {
		c.state.Store(prev.Failed(err, started))
		kind := FetchErrorKindOf(err)
		if kind == "" {
			kind = FetchTransport
		}
		metrics.ObserveRefresh(c.station.StationID, string(kind), took, 0)
		c.logger.Error().Err(err).Str("kind", string(kind)).Msg("guide refresh failed")
		c.publish(TopicGuideRefreshFailed, RefreshEvent{
			StationID: c.station.StationID,
			ErrorCode: string(kind),
			Error:     err.Error(),
			At:        started,
		})
		return err
	}

	c.state.Store(prev.Succeeded(payload, started))
	metrics.ObserveRefresh(c.station.StationID, "ok", took, len(payload.Entries))
	c.logger.Debug().Int("entries", len(payload.Entries)).Dur("took", took).Msg("guide updated")
	c.publish(TopicGuideRefreshed, RefreshEvent{
		StationID: c.station.StationID,
		Success:   true,
		Entries:   len(payload.Entries),
		At:        started,
	})
	return nil
}

func (c *Coordinator) publish(topic string, evt RefreshEvent) {
	if c.bus == nil {
		return
	}
	evt.ID = xid.New().String()
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.bus.Publish(topic, b)
}
