package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// Session is one request's unit of work. Entities it returns are tracked in an
// identity map, so in-place changes made through model.Entity setters are
// written by Save without further calls.
type Session struct {
	eng     engine
	loaded  map[ref]*model.Entity
	created []*model.Entity
	deleted map[ref]bool
	order   []ref
	linkOps []linkOp
	closed  bool
}

var _ Storage = (*Session)(nil)

func newSession(eng engine) *Session {
	return &Session{
		eng:     eng,
		loaded:  make(map[ref]*model.Entity),
		deleted: make(map[ref]bool),
	}
}

// Get returns the entity or ErrNotFound. Pending changes of this session are
// visible.
func (s *Session) Get(ctx context.Context, kind model.Kind, id string) (*model.Entity, error) {
	if s.closed {
		return nil, ErrClosed
	}
	r := ref{kind, id}
	if s.deleted[r] {
		return nil, ErrNotFound
	}
	if e, ok := s.loaded[r]; ok {
		return e, nil
	}
	for _, e := range s.created {
		if e.Kind == kind && e.ID == id {
			return e, nil
		}
	}
	e, err := s.eng.get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	s.loaded[r] = e
	return e, nil
}

// All returns every entity of kind ordered by creation time.
func (s *Session) All(ctx context.Context, kind model.Kind) ([]*model.Entity, error) {
	if s.closed {
		return nil, ErrClosed
	}
	stored, err := s.eng.all(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Entity, 0, len(stored)+len(s.created))
	for _, e := range stored {
		r := ref{kind, e.ID}
		if s.deleted[r] {
			continue
		}
		if cur, ok := s.loaded[r]; ok {
			out = append(out, cur)
			continue
		}
		s.loaded[r] = e
		out = append(out, e)
	}
	for _, e := range s.created {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	model.SortByCreation(out)
	return out, nil
}

// Children returns the entities of kind whose attribute field equals parentID.
func (s *Session) Children(ctx context.Context, kind model.Kind, field, parentID string) ([]*model.Entity, error) {
	all, err := s.All(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Entity, 0)
	for _, e := range all {
		if e.String(field) == parentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// New stages e for insertion.
func (s *Session) New(e *model.Entity) {
	r := ref{e.Kind, e.ID}
	delete(s.deleted, r)
	s.created = append(s.created, e)
}

// Delete stages e and everything depending on it for removal.
func (s *Session) Delete(ctx context.Context, e *model.Entity) error {
	if s.closed {
		return ErrClosed
	}
	r := ref{e.Kind, e.ID}
	if s.deleted[r] {
		return nil
	}
	for _, dep := range model.Dependents(e.Kind) {
		children, err := s.Children(ctx, dep.Kind, dep.Field, e.ID)
		if err != nil {
			return fmt.Errorf("load %s of %s %s: %w", dep.Kind, e.Kind, e.ID, err)
		}
		for _, c := range children {
			if err := s.Delete(ctx, c); err != nil {
				return err
			}
		}
	}

	s.deleted[r] = true
	s.order = append(s.order, r)
	delete(s.loaded, r)
	for i, c := range s.created {
		if c == e || (c.Kind == e.Kind && c.ID == e.ID) {
			s.created = append(s.created[:i], s.created[i+1:]...)
			break
		}
	}
	s.dropLinkOps(r)
	return nil
}

// AmenityIDs returns the linked amenity ids of each place, pending link
// changes applied.
func (s *Session) AmenityIDs(ctx context.Context, placeIDs ...string) (map[string][]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	base, err := s.eng.links(ctx, placeIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(placeIDs))
	for _, pid := range placeIDs {
		ids := append([]string(nil), base[pid]...)
		for _, op := range s.linkOps {
			if op.placeID != pid {
				continue
			}
			ids = applyLinkOp(ids, op)
		}
		kept := ids[:0]
		for _, aid := range ids {
			if !s.deleted[ref{model.KindAmenity, aid}] {
				kept = append(kept, aid)
			}
		}
		out[pid] = kept
	}
	return out, nil
}

// Link stages a place-amenity association.
func (s *Session) Link(placeID, amenityID string) {
	s.linkOps = append(s.linkOps, linkOp{placeID: placeID, amenityID: amenityID, add: true})
}

// Unlink stages the removal of a place-amenity association.
func (s *Session) Unlink(placeID, amenityID string) {
	s.linkOps = append(s.linkOps, linkOp{placeID: placeID, amenityID: amenityID})
}

// Save commits every staged change. On success the session keeps serving
// the committed state; on failure the staged changes are kept so the caller
// sees the error without losing the session.
func (s *Session) Save(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	cs := &changeset{linkOps: s.linkOps, deletes: s.order}
	cs.inserts = append(cs.inserts, s.created...)
	for _, e := range s.loaded {
		if e.Dirty() {
			cs.updates = append(cs.updates, e)
		}
	}
	model.SortByCreation(cs.updates)
	if cs.empty() {
		return nil
	}
	if err := s.eng.commit(ctx, cs); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, e := range cs.written() {
		e.MarkClean()
		s.loaded[ref{e.Kind, e.ID}] = e
	}
	s.created = nil
	s.linkOps = nil
	s.order = nil
	return nil
}

// Close ends the session and drops anything not yet saved. Closing twice is
// harmless.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.loaded = nil
	s.created = nil
	s.linkOps = nil
	s.order = nil
	return nil
}

func (s *Session) dropLinkOps(r ref) {
	if r.kind != model.KindPlace && r.kind != model.KindAmenity {
		return
	}
	kept := s.linkOps[:0]
	for _, op := range s.linkOps {
		if (r.kind == model.KindPlace && op.placeID == r.id) || (r.kind == model.KindAmenity && op.amenityID == r.id) {
			continue
		}
		kept = append(kept, op)
	}
	s.linkOps = kept
}

func applyLinkOp(ids []string, op linkOp) []string {
	for i, id := range ids {
		if id == op.amenityID {
			if op.add {
				return ids
			}
			return append(ids[:i], ids[i+1:]...)
		}
	}
	if op.add {
		ids = append(ids, op.amenityID)
	}
	return ids
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
