// Package storage is the persistence collaborator behind the API. A Provider
// owns one engine (memory, JSON file or SQL) for the life of the process and
// opens a Session per request. A Session stages new, modified and deleted
// entities plus place-amenity link changes, and writes them in one step on
// Save.
package storage

import (
	"context"
	"errors"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// ErrNotFound is returned when an entity lookup fails.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by a Session used after Close.
var ErrClosed = errors.New("storage session closed")

// Storage is the view handlers have of one request's session.
type Storage interface {
	Get(ctx context.Context, kind model.Kind, id string) (*model.Entity, error)
	All(ctx context.Context, kind model.Kind) ([]*model.Entity, error)
	Children(ctx context.Context, kind model.Kind, field, parentID string) ([]*model.Entity, error)
	New(e *model.Entity)
	Delete(ctx context.Context, e *model.Entity) error
	AmenityIDs(ctx context.Context, placeIDs ...string) (map[string][]string, error)
	Link(placeID, amenityID string)
	Unlink(placeID, amenityID string)
	Save(ctx context.Context) error
	Close() error
}

// engine is implemented by each backend. Reads return entities the caller may
// mutate freely; commit applies a changeset atomically.
type engine interface {
	get(ctx context.Context, kind model.Kind, id string) (*model.Entity, error)
	all(ctx context.Context, kind model.Kind) ([]*model.Entity, error)
	links(ctx context.Context, placeIDs []string) (map[string][]string, error)
	commit(ctx context.Context, cs *changeset) error
	close() error
}

type ref struct {
	kind model.Kind
	id   string
}

type linkOp struct {
	placeID   string
	amenityID string
	add       bool
}

// changeset is what one Save hands to the engine. Engines apply inserts and
// updates, then link ops in order, then deletes. Deleting a Place or an
// Amenity also drops every link row that mentions it. An update whose row no
// longer exists fails the whole changeset with ErrNotFound.
type changeset struct {
	inserts []*model.Entity
	updates []*model.Entity
	linkOps []linkOp
	deletes []ref
}

func (cs *changeset) empty() bool {
	return len(cs.inserts) == 0 && len(cs.updates) == 0 && len(cs.linkOps) == 0 && len(cs.deletes) == 0
}

func (cs *changeset) written() []*model.Entity {
	return append(append([]*model.Entity(nil), cs.inserts...), cs.updates...)
}

// Provider hands out sessions over a shared engine.
type Provider struct {
	name string
	eng  engine
}

// Name identifies the engine, e.g. "memory" or "mysql".
func (p *Provider) Name() string { return p.name }

// Open starts a new session. Sessions are not safe for concurrent use; each
// request gets its own.
func (p *Provider) Open() *Session {
	return newSession(p.eng)
}

// Close releases the engine.
func (p *Provider) Close() error {
	return p.eng.close()
}

// NewMemory returns a provider backed by process memory.
func NewMemory() *Provider {
	return &Provider{name: "memory", eng: newMemoryEngine()}
}
