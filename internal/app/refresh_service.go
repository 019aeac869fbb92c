package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ServiceRefresh est le nom de la commande externe qui rafraîchit toutes les stations.
const ServiceRefresh = "refresh"

// RefreshService enregistre les capteurs et porte la commande "refresh".
type RefreshService struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	sensors  map[string]*Sensor
	order    []string
	entities map[string]string
}

func NewRefreshService(logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		logger:   logger,
		sensors:  make(map[string]*Sensor),
		entities: make(map[string]string),
	}
}

func (s *RefreshService) Register(sensor *Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := sensor.StationID()
	if _, ok := s.sensors[id]; ok {
		return fmt.Errorf("station %s already registered", id)
	}
	// Deux stations peuvent porter le même nom ("Kan ?"): suffixe _2, _3...
	base := sensor.EntityID()
	entityID := base
	for n := 2; ; n++ {
		if _, taken := s.entities[entityID]; !taken {
			break
		}
		entityID = fmt.Sprintf("%s_%d", base, n)
	}
	sensor.entityID = entityID
	s.entities[entityID] = id
	s.sensors[id] = sensor
	s.order = append(s.order, id)
	s.logger.Debug().Str("entity_id", sensor.EntityID()).Msg("sensor registered")
	return nil
}

func (s *RefreshService) Sensor(stationID string) (*Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sensor, ok := s.sensors[stationID]
	if !ok {
		return nil, ErrStationNotFound
	}
	return sensor, nil
}

// Sensors renvoie les capteurs dans l'ordre d'enregistrement.
func (s *RefreshService) Sensors() []*Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Sensor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sensors[id])
	}
	return out
}

// RefreshAll exécute la commande "refresh" sur chaque station, en parallèle.
// Le résultat contient une entrée par station (nil si succès). Un échec de station
// n'annule pas les autres; seule la fin de ctx le fait.
func (s *RefreshService) RefreshAll(ctx context.Context) map[string]error {
	s.logger.Info().Msg("processing refresh")

	sensors := s.Sensors()
	var (
		mu  sync.Mutex
		out = make(map[string]error, len(sensors))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sensor := range sensors {
		sensor := sensor
		g.Go(func() error {
			err := sensor.RequestRefresh(gctx)
			mu.Lock()
			out[sensor.StationID()] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
