// Package model defines the entity kinds served by the API and the generic
// Entity record every kind is stored as. A kind's Schema lists the fields a
// client must send on create, the fields it may never change afterwards and
// the foreign keys that tie it to other kinds.
package model

import "fmt"

// Kind names one entity type. The string value is the class name used in
// serialized entities and as the storage key prefix.
type Kind string

const (
	KindAmenity Kind = "Amenity"
	KindCity    Kind = "City"
	KindPlace   Kind = "Place"
	KindReview  Kind = "Review"
	KindState   Kind = "State"
	KindUser    Kind = "User"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindAmenity, KindCity, KindPlace, KindReview, KindState, KindUser}

// Relation points from an attribute of one kind to the kind its value refers to.
type Relation struct {
	Field string // attribute holding the foreign id, e.g. "city_id"
	Kind  Kind   // kind the id resolves to
}

// Schema describes the request contract of one kind.
type Schema struct {
	Kind      Kind
	Plural    string     // collection name used in URLs and stats
	Required  []string   // required on create, checked in this order
	Immutable []string   // keys ignored on update in addition to the base keys
	Parent    *Relation  // foreign key taken from the request path
	Refs      []Relation // foreign keys taken from the body that must resolve
	Hidden    []string   // attributes never serialized
}

// BaseKeys are managed by storage and never assigned from a request body.
var BaseKeys = []string{"id", "created_at", "updated_at", "__class__"}

var schemas = map[Kind]*Schema{
	KindState: {
		Kind:     KindState,
		Plural:   "states",
		Required: []string{"name"},
	},
	KindCity: {
		Kind:      KindCity,
		Plural:    "cities",
		Required:  []string{"name"},
		Immutable: []string{"state_id"},
		Parent:    &Relation{Field: "state_id", Kind: KindState},
	},
	KindAmenity: {
		Kind:     KindAmenity,
		Plural:   "amenities",
		Required: []string{"name"},
	},
	KindUser: {
		Kind:      KindUser,
		Plural:    "users",
		Required:  []string{"email", "password"},
		Immutable: []string{"email"},
		Hidden:    []string{"password"},
	},
	KindPlace: {
		Kind:      KindPlace,
		Plural:    "places",
		Required:  []string{"user_id", "name"},
		Immutable: []string{"city_id", "user_id"},
		Parent:    &Relation{Field: "city_id", Kind: KindCity},
		Refs:      []Relation{{Field: "user_id", Kind: KindUser}},
	},
	KindReview: {
		Kind:      KindReview,
		Plural:    "reviews",
		Required:  []string{"user_id", "text"},
		Immutable: []string{"place_id", "user_id"},
		Parent:    &Relation{Field: "place_id", Kind: KindPlace},
		Refs:      []Relation{{Field: "user_id", Kind: KindUser}},
	},
}

// SchemaOf returns the schema registered for k. It panics on an unknown kind
// since kinds are compile-time constants.
func SchemaOf(k Kind) *Schema {
	s, ok := schemas[k]
	if !ok {
		panic(fmt.Sprintf("model: unknown kind %q", k))
	}
	return s
}

// ParseKind maps a class name to its Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := schemas[k]
	return k, ok
}

// Dependents returns the relations of other kinds whose foreign keys point at
// k. Deleting an entity of kind k deletes every entity reached this way.
func Dependents(k Kind) []Relation {
	var out []Relation
	for _, child := range Kinds {
		s := schemas[child]
		if s.Parent != nil && s.Parent.Kind == k {
			out = append(out, Relation{Field: s.Parent.Field, Kind: child})
		}
		for _, ref := range s.Refs {
			if ref.Kind == k {
				out = append(out, Relation{Field: ref.Field, Kind: child})
			}
		}
	}
	return out
}

// IgnoredOnUpdate reports whether key must be skipped when applying an update
// body to an entity of this schema.
func (s *Schema) IgnoredOnUpdate(key string) bool {
	for _, k := range BaseKeys {
		if k == key {
			return true
		}
	}
	for _, k := range s.Immutable {
		if k == key {
			return true
		}
	}
	return false
}

func (s *Schema) hidden(key string) bool {
	for _, k := range s.Hidden {
		if k == key {
			return true
		}
	}
	return false
}
