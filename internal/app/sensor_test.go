package app

import (
	"context"
	"testing"
	"time"

	"github.com/eyalcha/kan-program/internal/adapters/memorybus"
	"github.com/eyalcha/kan-program/internal/domain"
)

func TestSensor_RoundTrip(t *testing.T) {
	ts := serveBody(t, 200, onePayload)
	c := newTestCoordinator(nil, nil)
	c.source = newTestFetcher(ts.URL)
	sensor := NewSensor(c, nil).WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	})

	if err := sensor.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := sensor.Snapshot()
	if snap.State == nil || *snap.State != "A" {
		t.Fatalf("state: want A, got %v", snap.State)
	}
	if snap.Attributes[domain.AttrDescription] != "d" || snap.Attributes[domain.AttrChapterNumber] != 1 {
		t.Fatalf("unexpected attributes: %v", snap.Attributes)
	}
	if _, ok := snap.Attributes[domain.AttrNext]; ok {
		t.Fatalf("next should be absent")
	}
	if snap.Attributes[domain.AttrStationName] != "Kan Bet" {
		t.Fatalf("station_name: got %v", snap.Attributes[domain.AttrStationName])
	}
	if !snap.Available || snap.LastSuccessAt == nil {
		t.Fatalf("expected available snapshot, got %+v", snap)
	}
	if snap.EntityID != "kan_program.kan_bet" || snap.Icon != domain.DefaultIcon {
		t.Fatalf("unexpected identity: %+v", snap)
	}
}

func TestSensor_BeforeFirstRefresh(t *testing.T) {
	sensor := NewSensor(newTestCoordinator(nil, nil), nil)
	if sensor.State() != nil {
		t.Fatalf("expected unset state")
	}
	if sensor.Available() {
		t.Fatalf("expected unavailable before first refresh")
	}
	if sensor.Attributes() != nil {
		t.Fatalf("expected no attributes yet")
	}
}

func TestSensor_DefaultNameFromStationTable(t *testing.T) {
	c := NewCoordinator(testLogger(), domain.StationConfig{StationID: "9"}, nil, nil)
	sensor := NewSensor(c, nil)
	if sensor.Name() != "Kan Gimel" {
		t.Fatalf("name: want Kan Gimel, got %q", sensor.Name())
	}
	if sensor.EntityID() != "kan_program.kan_gimel" {
		t.Fatalf("entity id: got %q", sensor.EntityID())
	}
}

func TestEntityID(t *testing.T) {
	cases := map[string]string{
		"Kan 11":           "kan_program.kan_11",
		"Kan Kol Hamusika": "kan_program.kan_kol_hamusika",
		"Kan ?":            "kan_program.kan",
		"???":              "kan_program.station_3",
	}
	for name, want := range cases {
		if got := EntityID(name, "3"); got != want {
			t.Fatalf("EntityID(%q): want %q, got %q", name, want, got)
		}
	}
}

func TestSensor_AddListener(t *testing.T) {
	bus := memorybus.New()
	c := newTestCoordinator(func(ctx context.Context, stationID string, day time.Time) (domain.GuidePayload, error) {
		return programA(), nil
	}, bus)
	sensor := NewSensor(c, bus).WithClock(fixedClock)

	got := make(chan Snapshot, 4)
	remove := sensor.AddListener(func(s Snapshot) { got <- s })

	if err := sensor.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	select {
	case snap := <-got:
		if snap.State == nil || *snap.State != "A" {
			t.Fatalf("listener snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("listener not called")
	}

	remove()
	if err := sensor.RequestRefresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	select {
	case snap := <-got:
		t.Fatalf("listener called after removal: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}
