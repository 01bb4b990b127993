package model

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TimeFormat is the layout of created_at and updated_at in serialized entities.
const TimeFormat = "2006-01-02T15:04:05.000000"

// Entity is one stored record. Known and unknown attributes live in the same
// map; the kind's Schema decides which of them a client may change.
type Entity struct {
	Kind      Kind
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	attrs map[string]any
	dirty bool
}

// New builds a fresh entity of kind k with a generated id. Base keys present in
// attrs are dropped.
func New(k Kind, attrs map[string]any) *Entity {
	now := Now()
	e := &Entity{
		Kind:      k,
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		attrs:     make(map[string]any, len(attrs)),
	}
	for key, v := range attrs {
		if isBaseKey(key) {
			continue
		}
		e.attrs[key] = v
	}
	return e
}

// Restore rebuilds an entity read back from an engine.
func Restore(k Kind, id string, createdAt, updatedAt time.Time, attrs map[string]any) *Entity {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &Entity{
		Kind:      k,
		ID:        id,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
		attrs:     attrs,
	}
}

// Get returns the raw attribute value.
func (e *Entity) Get(key string) (any, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// String returns the attribute as a string, or "" when absent or not a string.
func (e *Entity) String(key string) string {
	s, _ := e.attrs[key].(string)
	return s
}

// Set assigns one attribute and marks the entity as modified.
func (e *Entity) Set(key string, v any) {
	e.attrs[key] = v
	e.touch()
}

// Apply assigns every key of updates the kind allows clients to change and
// returns the number of keys applied. Unknown keys are stored verbatim.
func (e *Entity) Apply(updates map[string]any) int {
	s := SchemaOf(e.Kind)
	n := 0
	for key, v := range updates {
		if s.IgnoredOnUpdate(key) {
			continue
		}
		e.attrs[key] = v
		n++
	}
	if n > 0 {
		e.touch()
	}
	return n
}

// Attributes returns a copy of the attribute map, hidden fields included.
func (e *Entity) Attributes() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// ToMap is the public representation of the entity.
func (e *Entity) ToMap() map[string]any {
	s := SchemaOf(e.Kind)
	out := make(map[string]any, len(e.attrs)+4)
	for k, v := range e.attrs {
		if s.hidden(k) {
			continue
		}
		out[k] = v
	}
	out["id"] = e.ID
	out["created_at"] = e.CreatedAt.Format(TimeFormat)
	out["updated_at"] = e.UpdatedAt.Format(TimeFormat)
	out["__class__"] = string(e.Kind)
	return out
}

// MarshalJSON encodes the public representation.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// Clone returns a deep enough copy for engines to hand out: the attribute map
// is copied, attribute values are shared.
func (e *Entity) Clone() *Entity {
	c := *e
	c.attrs = e.Attributes()
	return &c
}

// Dirty reports whether the entity changed since it was loaded or last saved.
func (e *Entity) Dirty() bool { return e.dirty }

// MarkClean clears the modified flag after a commit.
func (e *Entity) MarkClean() { e.dirty = false }

func (e *Entity) touch() {
	e.UpdatedAt = Now()
	e.dirty = true
}

// Now is the current UTC time at the precision serialized timestamps carry.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Maps serializes a list of entities.
func Maps(items []*Entity) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, e := range items {
		out = append(out, e.ToMap())
	}
	return out
}

// SortByCreation orders entities by creation time, then id.
func SortByCreation(items []*Entity) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func isBaseKey(key string) bool {
	for _, k := range BaseKeys {
		if k == key {
			return true
		}
	}
	return false
}
