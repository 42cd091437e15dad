package observability

import (
	"sync"
)

// Metrics provides in-memory counters for lifecycle operations. Snapshots
// are served by the status endpoint.
type Metrics struct {
	mu         sync.Mutex
	operations map[string]int64
	errors     map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		operations: make(map[string]int64),
		errors:     make(map[string]int64),
	}
}

// RecordOperation increments the counter for an operation outcome, e.g.
// ("open_ticket", "ok") or ("close_ticket", "NOT_A_TICKET_CHANNEL").
func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation+"|"+outcome]++
}

// RecordError increments the error counter for a code.
func (m *Metrics) RecordError(operation, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[operation+"|"+code]++
}

// Snapshot returns copies of the current counters.
func (m *Metrics) Snapshot() (operations, errors map[string]int64) {
	operations = make(map[string]int64)
	errors = make(map[string]int64)
	if m == nil {
		return operations, errors
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.operations {
		operations[k] = v
	}
	for k, v := range m.errors {
		errors[k] = v
	}
	return operations, errors
}
