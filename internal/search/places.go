// Package search implements the filtered place query behind places_search.
package search

import (
	"context"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// Query filters places. Every field is optional; ids that do not resolve are
// skipped.
type Query struct {
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
	Amenities []string `json:"amenities"`
}

// Empty reports whether the query selects every place.
func (q Query) Empty() bool {
	return len(q.States) == 0 && len(q.Cities) == 0 && len(q.Amenities) == 0
}

// Reader is the part of a storage session the search needs.
type Reader interface {
	Get(ctx context.Context, kind model.Kind, id string) (*model.Entity, error)
	All(ctx context.Context, kind model.Kind) ([]*model.Entity, error)
	Children(ctx context.Context, kind model.Kind, field, parentID string) ([]*model.Entity, error)
	AmenityIDs(ctx context.Context, placeIDs ...string) (map[string][]string, error)
}

var _ Reader = (storage.Storage)(nil)

// Places returns the places matching q. Places of the listed states and
// cities are unioned in the order first reached; a non-empty amenity list then
// keeps only places linked to all of them. With no state or city the amenity
// filter starts from every place.
func Places(ctx context.Context, r Reader, q Query) ([]*model.Entity, error) {
	if q.Empty() {
		return r.All(ctx, model.KindPlace)
	}

	var base []*model.Entity
	if len(q.States) == 0 && len(q.Cities) == 0 {
		all, err := r.All(ctx, model.KindPlace)
		if err != nil {
			return nil, err
		}
		base = all
	} else {
		u, err := union(ctx, r, q)
		if err != nil {
			return nil, err
		}
		base = u
	}

	if len(q.Amenities) == 0 || len(base) == 0 {
		return base, nil
	}
	return withAmenities(ctx, r, base, q.Amenities)
}

func union(ctx context.Context, r Reader, q Query) ([]*model.Entity, error) {
	out := make([]*model.Entity, 0)
	seen := make(map[string]bool)
	addCity := func(cityID string) error {
		places, err := r.Children(ctx, model.KindPlace, "city_id", cityID)
		if err != nil {
			return err
		}
		for _, p := range places {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
		return nil
	}

	for _, sid := range q.States {
		if _, err := r.Get(ctx, model.KindState, sid); err != nil {
			if storage.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		cities, err := r.Children(ctx, model.KindCity, "state_id", sid)
		if err != nil {
			return nil, err
		}
		for _, c := range cities {
			if err := addCity(c.ID); err != nil {
				return nil, err
			}
		}
	}
	for _, cid := range q.Cities {
		if _, err := r.Get(ctx, model.KindCity, cid); err != nil {
			if storage.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if err := addCity(cid); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func withAmenities(ctx context.Context, r Reader, base []*model.Entity, amenities []string) ([]*model.Entity, error) {
	ids := make([]string, len(base))
	for i, p := range base {
		ids[i] = p.ID
	}
	links, err := r.AmenityIDs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Entity, 0, len(base))
	for _, p := range base {
		have := make(map[string]bool, len(links[p.ID]))
		for _, aid := range links[p.ID] {
			have[aid] = true
		}
		keep := true
		for _, want := range amenities {
			if !have[want] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	return out, nil
}
