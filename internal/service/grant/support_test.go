package grant

import (
	"context"
	"sync"
	"time"

	"incubatorhub/internal/model"
)

// memStore is an in-memory CatalogStore with the same version-check
// semantics as the SQL-backed repository.
type memStore struct {
	mu     sync.Mutex
	docs   map[string]StoredCatalog
	puts   int
	getErr error
	putErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]StoredCatalog{}}
}

// cloneCatalog isolates callers from the stored tree; a payload round-trip
// is a convenient deep copy.
func cloneCatalog(cat model.GrantCatalog) model.GrantCatalog {
	return model.NormalizeCatalog(model.CatalogPayload(cat))
}

func (m *memStore) seed(startupID string, cat model.GrantCatalog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[startupID] = StoredCatalog{
		StartupID: startupID,
		Catalog:   cloneCatalog(cat),
		StoredAt:  time.Now().UTC(),
	}
}

func (m *memStore) Get(_ context.Context, startupID string) (*StoredCatalog, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[startupID]
	if !ok {
		return nil, nil
	}
	out := StoredCatalog{
		StartupID: stored.StartupID,
		Catalog:   cloneCatalog(stored.Catalog),
		StoredAt:  stored.StoredAt,
	}
	return &out, nil
}

func (m *memStore) Put(_ context.Context, startupID string, catalog model.GrantCatalog, expectedVersion int) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.docs[startupID]
	if !exists {
		if expectedVersion != 0 {
			return ErrVersionConflict
		}
	} else if stored.Catalog.Version != expectedVersion {
		return ErrVersionConflict
	}
	m.docs[startupID] = StoredCatalog{
		StartupID: startupID,
		Catalog:   cloneCatalog(catalog),
		StoredAt:  time.Now().UTC(),
	}
	m.puts++
	return nil
}

func (m *memStore) List(_ context.Context) ([]StoredCatalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []StoredCatalog{}
	for _, stored := range m.docs {
		out = append(out, StoredCatalog{
			StartupID: stored.StartupID,
			Catalog:   cloneCatalog(stored.Catalog),
			StoredAt:  stored.StoredAt,
		})
	}
	return out, nil
}

func (m *memStore) catalog(startupID string) model.GrantCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneCatalog(m.docs[startupID].Catalog)
}

type memMilestones struct {
	existing map[string]bool
}

func (m *memMilestones) Exists(_ context.Context, startupID, milestoneID string) (bool, error) {
	return m.existing[startupID+"/"+milestoneID], nil
}

type publishedEvent struct {
	routingKey string
	payload    any
}

type memPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *memPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func (p *memPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

func newTestService(store *memStore, milestones *memMilestones, publisher *memPublisher) *Service {
	if milestones == nil {
		milestones = &memMilestones{existing: map[string]bool{}}
	}
	if publisher == nil {
		publisher = &memPublisher{}
	}
	return NewService(store, milestones, publisher, nil, Policy{}, nil)
}

func seedGrant(store *memStore, startupID string, g model.GrantRecord) {
	store.seed(startupID, model.GrantCatalog{
		Version: 1,
		Grants:  []model.GrantRecord{g},
	})
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
