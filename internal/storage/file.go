package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// fileEngine is the memory engine plus a JSON snapshot rewritten after every
// commit. Objects are keyed "<Class>.<id>" like the classic file storage.
type fileEngine struct {
	*memoryEngine
	path string
}

type snapshot struct {
	Objects map[string]map[string]any `json:"objects"`
	Links   map[string][]string       `json:"place_amenity,omitempty"`
}

// OpenFile returns a provider persisting to the JSON file at path. A missing
// file is an empty store.
func OpenFile(path string) (*Provider, error) {
	f := &fileEngine{memoryEngine: newMemoryEngine(), path: path}
	if err := f.load(); err != nil {
		return nil, err
	}
	return &Provider{name: "file", eng: f}, nil
}

func (f *fileEngine) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	for key, rec := range snap.Objects {
		e, err := decodeRecord(key, rec)
		if err != nil {
			return fmt.Errorf("decode %s: %w", f.path, err)
		}
		f.objects[e.Kind][e.ID] = e
	}
	for pid, ids := range snap.Links {
		if len(ids) > 0 {
			f.linkMap[pid] = ids
		}
	}
	return nil
}

func (f *fileEngine) commit(_ context.Context, cs *changeset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(cs); err != nil {
		return err
	}
	f.apply(cs)
	return f.flush()
}

// flush must be called with mu held.
func (f *fileEngine) flush() error {
	snap := snapshot{
		Objects: make(map[string]map[string]any),
		Links:   f.linkMap,
	}
	for _, byID := range f.objects {
		for _, e := range byID {
			snap.Objects[string(e.Kind)+"."+e.ID] = encodeRecord(e)
		}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// encodeRecord keeps hidden attributes; the snapshot is not a public view.
func encodeRecord(e *model.Entity) map[string]any {
	rec := e.Attributes()
	rec["id"] = e.ID
	rec["created_at"] = e.CreatedAt.Format(model.TimeFormat)
	rec["updated_at"] = e.UpdatedAt.Format(model.TimeFormat)
	rec["__class__"] = string(e.Kind)
	return rec
}

func decodeRecord(key string, rec map[string]any) (*model.Entity, error) {
	class, id, ok := strings.Cut(key, ".")
	if !ok {
		return nil, fmt.Errorf("bad key %q", key)
	}
	kind, ok := model.ParseKind(class)
	if !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}
	created, err := parseTime(rec["created_at"])
	if err != nil {
		return nil, fmt.Errorf("%s created_at: %w", key, err)
	}
	updated, err := parseTime(rec["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("%s updated_at: %w", key, err)
	}
	attrs := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case "id", "created_at", "updated_at", "__class__":
			continue
		}
		attrs[k] = v
	}
	return model.Restore(kind, id, created, updated, attrs), nil
}

func parseTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("not a string: %v", v)
	}
	return time.Parse(model.TimeFormat, s)
}
