package tenant

import (
	"context"
	"sync"
)

// DataHandle provides tenant-scoped access to business records.
// A handle is only ever usable within the tenant its token resolved to.
type DataHandle interface {
	// TenantID returns the tenant this handle is scoped to.
	TenantID() string

	// Get retrieves a record from a collection.
	// Returns ErrRecordNotFound if absent.
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)

	// Put stores a record in a collection.
	Put(ctx context.Context, collection, id string, record map[string]interface{}) error

	// List returns all record IDs in a collection.
	List(ctx context.Context, collection string) ([]string, error)
}

// HandleFactory mints tenant-scoped handles from user tokens.
type HandleFactory interface {
	// ForToken resolves a token to a tenant-scoped handle.
	// An empty token returns ErrMissingToken; an unknown token returns
	// ErrInvalidToken.
	ForToken(token string) (DataHandle, error)
}

// MemoryFactory is an in-memory HandleFactory for tests and examples.
// Tokens are issued per tenant; data is partitioned by tenant ID so a
// handle can never read another tenant's records.
type MemoryFactory struct {
	mu     sync.RWMutex
	tokens map[string]string // token -> tenantID
	data   map[string]map[string]map[string]map[string]interface{}
}

// NewMemoryFactory creates an empty in-memory factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{
		tokens: make(map[string]string),
		data:   make(map[string]map[string]map[string]map[string]interface{}),
	}
}

// IssueToken registers a token for a tenant.
func (f *MemoryFactory) IssueToken(token, tenantID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = tenantID
}

// ForToken implements HandleFactory.
func (f *MemoryFactory) ForToken(token string) (DataHandle, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	f.mu.RLock()
	tenantID, ok := f.tokens[token]
	f.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidToken
	}

	return &memoryHandle{factory: f, tenantID: tenantID}, nil
}

// memoryHandle implements DataHandle over the factory's partitioned data.
type memoryHandle struct {
	factory  *MemoryFactory
	tenantID string
}

func (h *memoryHandle) TenantID() string {
	return h.tenantID
}

func (h *memoryHandle) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	h.factory.mu.RLock()
	defer h.factory.mu.RUnlock()

	records := h.factory.data[h.tenantID][collection]
	record, ok := records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out, nil
}

func (h *memoryHandle) Put(ctx context.Context, collection, id string, record map[string]interface{}) error {
	h.factory.mu.Lock()
	defer h.factory.mu.Unlock()

	tenantData := h.factory.data[h.tenantID]
	if tenantData == nil {
		tenantData = make(map[string]map[string]map[string]interface{})
		h.factory.data[h.tenantID] = tenantData
	}
	records := tenantData[collection]
	if records == nil {
		records = make(map[string]map[string]interface{})
		tenantData[collection] = records
	}

	copied := make(map[string]interface{}, len(record))
	for k, v := range record {
		copied[k] = v
	}
	records[id] = copied
	return nil
}

func (h *memoryHandle) List(ctx context.Context, collection string) ([]string, error) {
	h.factory.mu.RLock()
	defer h.factory.mu.RUnlock()

	records := h.factory.data[h.tenantID][collection]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	return ids, nil
}
