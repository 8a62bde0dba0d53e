package memory

import (
	"context"
	"hash/fnv"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/store"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"maternity-service/internal/pkg/search"
	"maternity-service/internal/pkg/utils"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	storeName  = "memory"
	keyStripes = 256
)

type entry struct {
	resource *models.Resource
	index    search.Index
}

// partition holds one resource type. mu guards the maps and the insertion
// order; writers additionally hold the key stripe of the resource.
type partition struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	flagKeys map[string]string
}

type resourceMemoryStore struct {
	partitions map[string]*partition
	keyLocks   [keyStripes]sync.Mutex
	now        func() time.Time
	Log        *zap.Logger
	Metrics    *metrics.Metrics
}

// NewResourceMemoryStore returns the single process store used for tests and
// seeding. It follows the same contract as the persistent store.
func NewResourceMemoryStore(logger *zap.Logger, m *metrics.Metrics) contracts.ResourceStore {
	return newResourceMemoryStore(logger, m)
}

func newResourceMemoryStore(logger *zap.Logger, m *metrics.Metrics) *resourceMemoryStore {
	partitions := make(map[string]*partition)
	for _, resourceType := range search.SupportedTypes() {
		partitions[resourceType] = &partition{
			entries:  make(map[string]*entry),
			flagKeys: make(map[string]string),
		}
	}
	return &resourceMemoryStore{
		partitions: partitions,
		now:        time.Now,
		Log:        logger,
		Metrics:    m,
	}
}

func (s *resourceMemoryStore) keyLock(resourceType, id string) *sync.Mutex {
	hash := fnv.New32a()
	hash.Write([]byte(resourceType))
	hash.Write([]byte{'/'})
	hash.Write([]byte(id))
	return &s.keyLocks[hash.Sum32()%keyStripes]
}

func (s *resourceMemoryStore) partition(resourceType string) (*partition, error) {
	p, ok := s.partitions[resourceType]
	if !ok {
		return nil, exceptions.ErrInvalidResourceType(nil, resourceType)
	}
	return p, nil
}

func (s *resourceMemoryStore) Create(ctx context.Context, resourceType string, payload *models.Resource) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionCreate, resourceType, store.Outcome(err), started)
	}()

	p, err := s.partition(resourceType)
	if err != nil {
		return nil, err
	}

	resource := store.PrepareCreate(resourceType, payload, s.now())
	index, err := search.Extract(resource)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	lock := s.keyLock(resourceType, resource.ID)
	lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[resource.ID]; exists {
		return nil, exceptions.ErrResourceExists(nil, resourceType, resource.ID)
	}
	if key, ok := models.ActiveFlagKey(resource); ok {
		if _, taken := p.flagKeys[key]; taken {
			return nil, exceptions.ErrActiveFlagExists(nil, key)
		}
		p.flagKeys[key] = resource.ID
	}

	p.entries[resource.ID] = &entry{resource: resource, index: index}
	p.order = append(p.order, resource.ID)

	s.Log.Debug("resourceMemoryStore.Create succeeded",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, resource.ID),
	)
	return resource.Clone(), nil
}

func (s *resourceMemoryStore) Read(ctx context.Context, resourceType, id string) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionRead, resourceType, store.Outcome(err), started)
	}()

	p, err := s.partition(resourceType)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	current, ok := p.entries[id]
	if !ok {
		return nil, exceptions.ErrResourceNotFound(nil, resourceType, id)
	}
	return current.resource.Clone(), nil
}

func (s *resourceMemoryStore) Update(ctx context.Context, resourceType, id string, payload *models.Resource) (result *models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionUpdate, resourceType, store.Outcome(err), started)
	}()

	p, err := s.partition(resourceType)
	if err != nil {
		return nil, err
	}

	lock := s.keyLock(resourceType, id)
	lock.Lock()
	defer lock.Unlock()

	p.mu.RLock()
	current, ok := p.entries[id]
	p.mu.RUnlock()
	if !ok {
		return nil, exceptions.ErrResourceNotFound(nil, resourceType, id)
	}

	resource := store.PrepareUpdate(current.resource, payload, s.now())
	index, err := search.Extract(resource)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	oldKey, hadKey := models.ActiveFlagKey(current.resource)
	newKey, hasKey := models.ActiveFlagKey(resource)
	if hasKey && (!hadKey || oldKey != newKey) {
		if owner, taken := p.flagKeys[newKey]; taken && owner != id {
			return nil, exceptions.ErrActiveFlagExists(nil, newKey)
		}
	}
	if hadKey {
		delete(p.flagKeys, oldKey)
	}
	if hasKey {
		p.flagKeys[newKey] = id
	}

	p.entries[id] = &entry{resource: resource, index: index}

	s.Log.Debug("resourceMemoryStore.Update succeeded",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingResourceTypeKey, resourceType),
		zap.String(constvars.LoggingResourceIDKey, id),
		zap.Int(constvars.LoggingVersionIDKey, resource.Meta.VersionID),
	)
	return resource.Clone(), nil
}

func (s *resourceMemoryStore) Delete(ctx context.Context, resourceType, id string) (err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionDelete, resourceType, store.Outcome(err), started)
	}()

	p, err := s.partition(resourceType)
	if err != nil {
		return err
	}

	lock := s.keyLock(resourceType, id)
	lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.entries[id]
	if !ok {
		return exceptions.ErrResourceNotFound(nil, resourceType, id)
	}
	if key, ok := models.ActiveFlagKey(current.resource); ok && p.flagKeys[key] == id {
		delete(p.flagKeys, key)
	}
	delete(p.entries, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *resourceMemoryStore) Search(ctx context.Context, resourceType string, params map[string]string) (results []*models.Resource, err error) {
	started := time.Now()
	defer func() {
		s.Metrics.ObserveStoreOperation(storeName, constvars.ActionSearch, resourceType, store.Outcome(err), started)
	}()

	p, err := s.partition(resourceType)
	if err != nil {
		return nil, err
	}

	query := search.Translate(resourceType, params)
	results = make([]*models.Resource, 0)
	if query.MatchNothing || query.Count == 0 {
		return results, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, id := range p.order {
		current := p.entries[id]
		if !query.Matches(current.index) {
			continue
		}
		results = append(results, current.resource.Clone())
		if query.Count != search.NoLimit && len(results) >= query.Count {
			break
		}
	}
	return results, nil
}
