// Package memory provides an in-process AddressStore for tests and
// single-instance development runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

var _ domain.AddressStore = (*Store)(nil)

// Store is a map-backed AddressStore guarded by a RWMutex.
type Store struct {
	mu           sync.RWMutex
	byID         map[string]domain.Address
	byNormalized map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byID:         make(map[string]domain.Address),
		byNormalized: make(map[string]string),
	}
}

func (s *Store) FindByNormalizedText(_ context.Context, normalized string) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNormalized[normalized]
	if !ok {
		return domain.Address{}, domain.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) FindByID(_ context.Context, id string) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.byID[id]
	if !ok {
		return domain.Address{}, domain.ErrNotFound
	}
	return clone(addr), nil
}

func (s *Store) FindPage(_ context.Context, limit, offset int) ([]domain.Address, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sorted(func(a, b domain.Address) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := len(all)
	if offset >= total {
		return []domain.Address{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (s *Store) Create(_ context.Context, addr domain.Address) (domain.Address, error) {
	if err := domain.ValidateNew(addr); err != nil {
		return domain.Address{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNormalized[addr.AddressNormalized]; exists {
		return domain.Address{}, domain.ErrConflict
	}

	addr.ID = uuid.NewString()
	stored := clone(addr)
	s.byID[addr.ID] = stored
	s.byNormalized[addr.AddressNormalized] = addr.ID
	return clone(stored), nil
}

func (s *Store) FindStale(_ context.Context, staleBefore time.Time, limit int) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stale := s.sorted(staleOrder)
	out := make([]domain.Address, 0, limit)
	for _, addr := range stale {
		if len(out) == limit {
			break
		}
		if _, ok := addr.Coordinates(); !ok {
			continue
		}
		if addr.WildfireFetchedAt != nil && !addr.WildfireFetchedAt.Before(staleBefore) {
			continue
		}
		out = append(out, addr)
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[addr.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.WildfireData = addr.WildfireData
	existing.WildfireFetchedAt = addr.WildfireFetchedAt
	existing.UpdatedAt = addr.UpdatedAt
	s.byID[addr.ID] = clone(existing)
	return nil
}

// CheckReadiness always succeeds.
func (s *Store) CheckReadiness(context.Context) error {
	return nil
}

// sorted returns clones of every record ordered by less. Callers hold mu.
func (s *Store) sorted(less func(a, b domain.Address) bool) []domain.Address {
	all := make([]domain.Address, 0, len(s.byID))
	for _, addr := range s.byID {
		all = append(all, clone(addr))
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	return all
}

// staleOrder puts never-fetched records first, then oldest fetch, then
// oldest created.
func staleOrder(a, b domain.Address) bool {
	af, bf := a.WildfireFetchedAt, b.WildfireFetchedAt
	switch {
	case af == nil && bf != nil:
		return true
	case af != nil && bf == nil:
		return false
	case af != nil && !af.Equal(*bf):
		return af.Before(*bf)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// clone deep-copies the pointer and slice fields so callers cannot mutate
// stored state.
func clone(a domain.Address) domain.Address {
	if a.Latitude != nil {
		v := *a.Latitude
		a.Latitude = &v
	}
	if a.Longitude != nil {
		v := *a.Longitude
		a.Longitude = &v
	}
	if a.WildfireFetchedAt != nil {
		v := *a.WildfireFetchedAt
		a.WildfireFetchedAt = &v
	}
	if a.GeocodeRaw != nil {
		a.GeocodeRaw = append([]byte(nil), a.GeocodeRaw...)
	}
	records := make([]domain.FireDetection, len(a.WildfireData.Records))
	for i, rec := range a.WildfireData.Records {
		cp := make(domain.FireDetection, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		records[i] = cp
	}
	a.WildfireData.Records = records
	return a
}
