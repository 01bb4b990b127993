package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// memoryEngine keeps every entity in maps guarded by one RWMutex. Reads hand
// out clones so sessions never share mutable state.
type memoryEngine struct {
	mu      sync.RWMutex
	objects map[model.Kind]map[string]*model.Entity
	linkMap map[string][]string // place id -> amenity ids in link order
}

func newMemoryEngine() *memoryEngine {
	m := &memoryEngine{
		objects: make(map[model.Kind]map[string]*model.Entity, len(model.Kinds)),
		linkMap: make(map[string][]string),
	}
	for _, k := range model.Kinds {
		m.objects[k] = make(map[string]*model.Entity)
	}
	return m
}

func (m *memoryEngine) get(_ context.Context, kind model.Kind, id string) (*model.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.objects[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *memoryEngine) all(_ context.Context, kind model.Kind) ([]*model.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Entity, 0, len(m.objects[kind]))
	for _, e := range m.objects[kind] {
		out = append(out, e.Clone())
	}
	model.SortByCreation(out)
	return out, nil
}

func (m *memoryEngine) links(_ context.Context, placeIDs []string) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]string, len(placeIDs))
	for _, pid := range placeIDs {
		if ids, ok := m.linkMap[pid]; ok {
			out[pid] = append([]string(nil), ids...)
		}
	}
	return out, nil
}

func (m *memoryEngine) commit(_ context.Context, cs *changeset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(cs); err != nil {
		return err
	}
	m.apply(cs)
	return nil
}

// check rejects a changeset updating an entity another session deleted.
// It must be called with mu held.
func (m *memoryEngine) check(cs *changeset) error {
	for _, e := range cs.updates {
		if _, ok := m.objects[e.Kind][e.ID]; !ok {
			return fmt.Errorf("update %s %s: %w", e.Kind, e.ID, ErrNotFound)
		}
	}
	return nil
}

// apply must be called with mu held.
func (m *memoryEngine) apply(cs *changeset) {
	for _, e := range cs.written() {
		c := e.Clone()
		c.MarkClean()
		m.objects[e.Kind][e.ID] = c
	}
	for _, op := range cs.linkOps {
		ids := applyLinkOp(m.linkMap[op.placeID], op)
		if len(ids) == 0 {
			delete(m.linkMap, op.placeID)
			continue
		}
		m.linkMap[op.placeID] = ids
	}
	for _, r := range cs.deletes {
		delete(m.objects[r.kind], r.id)
		switch r.kind {
		case model.KindPlace:
			delete(m.linkMap, r.id)
		case model.KindAmenity:
			for pid, ids := range m.linkMap {
				m.linkMap[pid] = applyLinkOp(ids, linkOp{placeID: pid, amenityID: r.id})
				if len(m.linkMap[pid]) == 0 {
					delete(m.linkMap, pid)
				}
			}
		}
	}
}

func (m *memoryEngine) close() error { return nil }
