package checklist

import (
	"context"
	"sort"
	"sync"

	"agrocert/pkg/platform/sentinel"
)

// Catalog is the read side of the control-point reference data. Implemented
// in memory; the data volume is small and fully loaded at startup.
type Catalog interface {
	ByID(ctx context.Context, id string) (ControlPoint, error)
	ListByCategory(ctx context.Context, category Category) ([]ControlPoint, error)
	All(ctx context.Context) ([]ControlPoint, error)
}

// InMemoryCatalog holds the seeded control points. The RWMutex only guards
// the initial Load; reads after startup are contention-free in practice.
type InMemoryCatalog struct {
	mu     sync.RWMutex
	points map[string]ControlPoint
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{points: make(map[string]ControlPoint)}
}

// Load registers control points. Duplicate IDs return ErrConflict so seed
// mistakes surface at startup rather than as silent overwrites.
func (c *InMemoryCatalog) Load(points []ControlPoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cp := range points {
		if _, exists := c.points[cp.ID]; exists {
			return sentinel.ErrConflict
		}
		c.points[cp.ID] = cp
	}
	return nil
}

func (c *InMemoryCatalog) ByID(_ context.Context, id string) (ControlPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.points[id]
	if !ok {
		return ControlPoint{}, sentinel.ErrNotFound
	}
	return cp, nil
}

func (c *InMemoryCatalog) ListByCategory(_ context.Context, category Category) ([]ControlPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []ControlPoint
	for _, cp := range c.points {
		if cp.Category == category {
			out = append(out, cp)
		}
	}
	sortByID(out)
	return out, nil
}

func (c *InMemoryCatalog) All(_ context.Context) ([]ControlPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ControlPoint, 0, len(c.points))
	for _, cp := range c.points {
		out = append(out, cp)
	}
	sortByID(out)
	return out, nil
}

func sortByID(points []ControlPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].ID < points[j].ID })
}
