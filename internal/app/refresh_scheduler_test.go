package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eyalcha/kan-program/internal/domain"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestRefreshScheduler_RunTicksUntilCanceled(t *testing.T) {
	var calls int32
	c := newTestCoordinator(func(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error) {
		n := atomic.AddInt32(&calls, 1)
		if n%2 == 0 {
			return domain.GuidePayload{}, errors.New("boom")
		}
		return programA(), nil
	}, nil)

	sch := NewRefreshScheduler(testLogger(), c)
	sch.TickInterval = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sch.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop on context cancel")
	}
	// refresh initial + plusieurs ticks, malgré les échecs
	if got := atomic.LoadInt32(&calls); got < 3 {
		t.Fatalf("expected at least 3 refreshes, got %d", got)
	}
}

func TestRefreshScheduler_UsesStationInterval(t *testing.T) {
	c := NewCoordinator(testLogger(), domain.StationConfig{StationID: "1", PollInterval: 5 * time.Minute}, nil, nil)
	if got := NewRefreshScheduler(testLogger(), c).TickInterval; got != 5*time.Minute {
		t.Fatalf("interval: want 5m, got %v", got)
	}
	c = NewCoordinator(testLogger(), domain.StationConfig{StationID: "1"}, nil, nil)
	if got := NewRefreshScheduler(testLogger(), c).TickInterval; got != domain.DefaultPollInterval {
		t.Fatalf("interval: want default, got %v", got)
	}
}

func TestRefreshService_RefreshAll(t *testing.T) {
	svc := NewRefreshService(testLogger())
	for _, id := range []string{"1", "8"} {
		id := id
		c := NewCoordinator(testLogger(), domain.StationConfig{StationID: id}, sourceFunc(func(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error) {
			if stationID == "8" {
				return domain.GuidePayload{}, &FetchError{Kind: FetchUpstreamError, Message: "station closed"}
			}
			return programA(), nil
		}), nil)
		if err := svc.Register(NewSensor(c, nil)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	if err := svc.Register(NewSensor(NewCoordinator(testLogger(), domain.StationConfig{StationID: "1"}, nil, nil), nil)); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	res := svc.RefreshAll(context.Background())
	if len(res) != 2 {
		t.Fatalf("results: want 2, got %d", len(res))
	}
	if res["1"] != nil {
		t.Fatalf("station 1: %v", res["1"])
	}
	if FetchErrorKindOf(res["8"]) != FetchUpstreamError {
		t.Fatalf("station 8: want upstream error, got %v", res["8"])
	}

	if _, err := svc.Sensor("42"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("want ErrStationNotFound, got %v", err)
	}
	if ids := svc.Sensors(); len(ids) != 2 || ids[0].StationID() != "1" {
		t.Fatalf("unexpected sensors order")
	}
}

func TestRefreshService_RegisterMakesEntityIDsUnique(t *testing.T) {
	svc := NewRefreshService(testLogger())
	var sensors []*Sensor
	for _, id := range []string{"3", "10"} {
		s := NewSensor(NewCoordinator(testLogger(), domain.StationConfig{StationID: id}, nil, nil), nil)
		if err := svc.Register(s); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
		sensors = append(sensors, s)
	}

	if got := sensors[0].EntityID(); got != "kan_program.kan" {
		t.Fatalf("station 3: want kan_program.kan, got %q", got)
	}
	if got := sensors[1].EntityID(); got != "kan_program.kan_2" {
		t.Fatalf("station 10: want kan_program.kan_2, got %q", got)
	}
	if got := sensors[1].Snapshot().EntityID; got != "kan_program.kan_2" {
		t.Fatalf("snapshot entity id: got %q", got)
	}
}

func TestRefreshService_RefreshAllHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	svc := NewRefreshService(testLogger())
	for _, id := range []string{"1", "8"} {
		c := NewCoordinator(testLogger(), domain.StationConfig{StationID: id}, sourceFunc(func(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error) {
			<-release
			return programA(), nil
		}), nil)
		if err := svc.Register(NewSensor(c, nil)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := svc.RefreshAll(ctx)
	if len(res) != 2 {
		t.Fatalf("results: want 2, got %d", len(res))
	}
	for id, err := range res {
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("station %s: want context.Canceled, got %v", id, err)
		}
	}
}
