package content

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/database"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/importers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Source identifies where the current collections were loaded from.
type Source string

const (
	SourceNone     Source = ""
	SourceRemote   Source = "remote"
	SourceSnapshot Source = "snapshot"
	SourceFallback Source = "fallback"
)

// Store is the in-memory copy of both collections shared by the public page
// and the editor. Every mutation writes a snapshot of both collections to the
// kv_store table before it becomes visible.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	services []models.Service
	prices   []models.Price
	source   Source
	loadedAt time.Time
}

// NewStore returns an empty store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Hydrate fills the store from the first source that yields both documents:
// the remote loader (when non-nil and configured), the persisted snapshot,
// then the embedded fallback. Failures are logged and never returned unless
// even the fallback is unusable.
func (s *Store) Hydrate(ctx context.Context, loader *Loader) (Source, error) {
	if loader != nil && loader.BaseURL != "" {
		services, prices, err := loader.Load(ctx)
		if err == nil {
			s.replace(services, prices, SourceRemote)
			log.Infof("content: loaded %d services and %d prices from %s", len(services), len(prices), loader.BaseURL)
			return SourceRemote, nil
		}
		log.Warnf("content: remote load failed: %v", err)
	}

	services, prices, err := s.loadSnapshot()
	if err == nil {
		s.replace(services, prices, SourceSnapshot)
		log.Infof("content: loaded %d services and %d prices from snapshot", len(services), len(prices))
		return SourceSnapshot, nil
	}
	log.Debugf("content: no usable snapshot: %v", err)

	services, prices, err = LoadFallback()
	if err != nil {
		return SourceNone, err
	}
	s.replace(services, prices, SourceFallback)
	log.Infof("content: using embedded fallback data")
	return SourceFallback, nil
}

// LoadFallback decodes the embedded fallback documents.
func LoadFallback() ([]models.Service, []models.Price, error) {
	services, err := importers.ParseServices(bytes.NewReader(database.FallbackServices()))
	if err != nil {
		return nil, nil, fmt.Errorf("content: fallback: %w", err)
	}
	prices, err := importers.ParsePrices(bytes.NewReader(database.FallbackPrices()))
	if err != nil {
		return nil, nil, fmt.Errorf("content: fallback: %w", err)
	}
	return services, prices, nil
}

func (s *Store) loadSnapshot() ([]models.Service, []models.Price, error) {
	rawServices, err := models.GetValue(s.db, models.KeyServicesCatalog)
	if err != nil {
		return nil, nil, err
	}
	rawPrices, err := models.GetValue(s.db, models.KeyPricesCatalog)
	if err != nil {
		return nil, nil, err
	}
	services, err := importers.ParseServices(strings.NewReader(rawServices))
	if err != nil {
		return nil, nil, err
	}
	prices, err := importers.ParsePrices(strings.NewReader(rawPrices))
	if err != nil {
		return nil, nil, err
	}
	return services, prices, nil
}

func (s *Store) replace(services []models.Service, prices []models.Price, source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = cloneServices(services)
	s.prices = slices.Clone(prices)
	s.source = source
	s.loadedAt = time.Now()
}

// Source reports where the collections were loaded from.
func (s *Store) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// LoadedAt reports when the collections were last hydrated.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Services returns a copy of the service catalog in display order.
func (s *Store) Services() []models.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneServices(s.services)
}

// Prices returns a copy of the price list in display order.
func (s *Store) Prices() []models.Price {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.prices)
}

// Service looks up one service by id.
func (s *Store) Service(id int) (models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.services, func(v models.Service) bool { return v.ID == id })
	if i < 0 {
		return models.Service{}, models.ErrNotFound
	}
	return cloneService(s.services[i]), nil
}

// Price looks up one price entry by id.
func (s *Store) Price(id int) (models.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.prices, func(v models.Price) bool { return v.ID == id })
	if i < 0 {
		return models.Price{}, models.ErrNotFound
	}
	return s.prices[i], nil
}

// AddService validates the input, assigns the next id, and appends the record.
func (s *Store) AddService(in models.ServiceInput) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := models.BuildService(models.NextServiceID(s.services), in)
	if err != nil {
		return models.Service{}, err
	}
	next := append(cloneServices(s.services), svc)
	if err := s.commit(next, s.prices); err != nil {
		return models.Service{}, err
	}
	return cloneService(svc), nil
}

// UpdateService replaces the service with the given id in place, keeping its
// id and position.
func (s *Store) UpdateService(id int, in models.ServiceInput) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.services, func(v models.Service) bool { return v.ID == id })
	if i < 0 {
		return models.Service{}, models.ErrNotFound
	}
	svc, err := models.BuildService(id, in)
	if err != nil {
		return models.Service{}, err
	}
	next := cloneServices(s.services)
	next[i] = svc
	if err := s.commit(next, s.prices); err != nil {
		return models.Service{}, err
	}
	return cloneService(svc), nil
}

// DeleteService removes the first service with the given id. It reports
// whether a record was removed; a missing id is not an error.
func (s *Store) DeleteService(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.services, func(v models.Service) bool { return v.ID == id })
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(cloneServices(s.services), i, i+1)
	if err := s.commit(next, s.prices); err != nil {
		return false, err
	}
	return true, nil
}

// AddPrice validates the input, assigns the next id, and appends the entry.
func (s *Store) AddPrice(in models.PriceInput) (models.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := models.BuildPrice(models.NextPriceID(s.prices), in)
	if err != nil {
		return models.Price{}, err
	}
	next := append(slices.Clone(s.prices), p)
	if err := s.commit(s.services, next); err != nil {
		return models.Price{}, err
	}
	return p, nil
}

// UpdatePrice replaces the price entry with the given id in place.
func (s *Store) UpdatePrice(id int, in models.PriceInput) (models.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.prices, func(v models.Price) bool { return v.ID == id })
	if i < 0 {
		return models.Price{}, models.ErrNotFound
	}
	p, err := models.BuildPrice(id, in)
	if err != nil {
		return models.Price{}, err
	}
	next := slices.Clone(s.prices)
	next[i] = p
	if err := s.commit(s.services, next); err != nil {
		return models.Price{}, err
	}
	return p, nil
}

// DeletePrice removes the first price entry with the given id.
func (s *Store) DeletePrice(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.prices, func(v models.Price) bool { return v.ID == id })
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(s.prices), i, i+1)
	if err := s.commit(s.services, next); err != nil {
		return false, err
	}
	return true, nil
}

// commit persists both collections and then swaps them in. The caller holds
// the write lock.
func (s *Store) commit(services []models.Service, prices []models.Price) error {
	rawServices, err := importers.EncodeJSON(nonNil(services))
	if err != nil {
		return err
	}
	rawPrices, err := importers.EncodeJSON(nonNil(prices))
	if err != nil {
		return err
	}
	err = models.SetValues(s.db, map[string]string{
		models.KeyServicesCatalog: string(rawServices),
		models.KeyPricesCatalog:   string(rawPrices),
	})
	if err != nil {
		return fmt.Errorf("content: save snapshot: %w", err)
	}
	s.services = services
	s.prices = prices
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func cloneService(v models.Service) models.Service {
	v.Items = slices.Clone(v.Items)
	return v
}

func cloneServices(in []models.Service) []models.Service {
	if in == nil {
		return nil
	}
	out := make([]models.Service, len(in))
	for i, v := range in {
		out[i] = cloneService(v)
	}
	return out
}
