package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/eyalcha/kan-program/internal/domain"
)

// RefreshScheduler déclenche le refresh d'une station à intervalle fixe.
// Les échecs sont déjà enregistrés par le coordinateur; la boucle continue.
type RefreshScheduler struct {
	logger      zerolog.Logger
	coordinator *Coordinator

	TickInterval   time.Duration
	InitialRefresh bool
}

func NewRefreshScheduler(logger zerolog.Logger, coordinator *Coordinator) *RefreshScheduler {
	interval := coordinator.Station().PollInterval
	if interval <= 0 {
		interval = domain.DefaultPollInterval
	}
	return &RefreshScheduler{
		logger:         logger,
		coordinator:    coordinator,
		TickInterval:   interval,
		InitialRefresh: true,
	}
}

func (sch *RefreshScheduler) Run(ctx context.Context) {
	interval := sch.TickInterval
	if interval <= 0 {
		interval = domain.DefaultPollInterval
	}
	if sch.InitialRefresh {
		sch.tick(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sch.logger.Info().Msg("refresh scheduler stopped")
			return
		case <-ticker.C:
			sch.tick(ctx)
		}
	}
}

func (sch *RefreshScheduler) tick(ctx context.Context) {
	if err := sch.coordinator.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		sch.logger.Debug().Err(err).Msg("scheduled refresh failed")
	}
}
