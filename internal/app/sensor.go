package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/eyalcha/kan-program/internal/domain"
	"github.com/eyalcha/kan-program/internal/ports"
)

// Snapshot est la vue lue par le tableau de bord.
type Snapshot struct {
	EntityID      string         `json:"entityId"`
	StationID     string         `json:"stationId"`
	Name          string         `json:"name"`
	Icon          string         `json:"icon"`
	State         *string        `json:"state"`
	Attributes    map[string]any `json:"attributes"`
	Available     bool           `json:"available"`
	LastError     string         `json:"lastError,omitempty"`
	LastSuccessAt *time.Time     `json:"lastSuccessAt,omitempty"`
}

// Sensor expose l'émission en cours d'une station. La vue est recalculée à chaque
// lecture à partir du dernier guide et de l'heure courante.
type Sensor struct {
	coordinator *Coordinator
	bus         ports.EventBus
	name        string
	entityID    string
	now         func() time.Time

	mu   sync.Mutex
	view domain.View
}

func NewSensor(coordinator *Coordinator, bus ports.EventBus) *Sensor {
	st := coordinator.Station()
	name := st.DisplayName
	if name == "" {
		name, _ = domain.StationName(st.StationID)
	}
	return &Sensor{
		coordinator: coordinator,
		bus:         bus,
		name:        name,
		entityID:    EntityID(name, st.StationID),
		now:         time.Now,
	}
}

// WithClock remplace l'horloge (tests).
func (s *Sensor) WithClock(now func() time.Time) *Sensor {
	if now != nil {
		s.now = now
	}
	return s
}

// EntityID construit l'identifiant "kan_program.<nom>" à partir du nom affiché.
func EntityID(name, stationID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		slug = "station_" + stationID
	}
	return domain.EntityDomain + "." + slug
}

func (s *Sensor) Name() string      { return s.name }
func (s *Sensor) EntityID() string  { return s.entityID }
func (s *Sensor) Icon() string      { return domain.DefaultIcon }
func (s *Sensor) StationID() string { return s.coordinator.Station().StationID }

func (s *Sensor) render() (domain.View, *domain.RefreshState) {
	st := s.coordinator.State()
	var payload *domain.GuidePayload
	if st != nil {
		payload = st.LastPayload
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = domain.BuildView(s.view, payload, s.now(), s.name)
	return s.view, st
}

func (s *Sensor) State() *string {
	v, _ := s.render()
	return v.State
}

// Attributes renvoie la map courante. Elle est remplacée, jamais modifiée: ne pas l'écrire.
func (s *Sensor) Attributes() map[string]any {
	v, _ := s.render()
	return v.Attributes
}

func (s *Sensor) Available() bool {
	s.render()
	return s.coordinator.LastUpdateSuccess()
}

func (s *Sensor) Snapshot() Snapshot {
	v, st := s.render()
	snap := Snapshot{
		EntityID:   s.entityID,
		StationID:  s.StationID(),
		Name:       s.name,
		Icon:       s.Icon(),
		State:      v.State,
		Attributes: v.Attributes,
	}
	if st != nil {
		snap.Available = st.LastSuccess
		snap.LastError = st.LastError
		if !st.LastSuccessAt.IsZero() {
			at := st.LastSuccessAt
			snap.LastSuccessAt = &at
		}
	}
	return snap
}

// RequestRefresh passe par le refresh unique du coordinateur.
func (s *Sensor) RequestRefresh(ctx context.Context) error {
	return s.coordinator.Refresh(ctx)
}

// AddListener appelle fn après chaque refresh de la station. La fonction renvoyée
// détache le listener.
func (s *Sensor) AddListener(fn func(Snapshot)) (remove func()) {
	if s.bus == nil || fn == nil {
		return func() {}
	}
	ch, cancel := s.bus.Subscribe()
	go func() {
		for evt := range ch {
			if evt.Topic != TopicGuideRefreshed && evt.Topic != TopicGuideRefreshFailed {
				continue
			}
			var re RefreshEvent
			if err := json.Unmarshal(evt.Payload, &re); err != nil || re.StationID != s.StationID() {
				continue
			}
			fn(s.Snapshot())
		}
	}()
	return cancel
}
