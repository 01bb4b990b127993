package model

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDropsBaseKeys(t *testing.T) {
	e := New(KindState, map[string]any{"id": "forced", "created_at": "x", "name": "CA"})

	assert.NotEqual(t, "forced", e.ID)
	assert.Equal(t, "CA", e.String("name"))
	_, ok := e.Get("created_at")
	assert.False(t, ok)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestApplySkipsImmutableKeys(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		attrs   map[string]any
		updates map[string]any
		applied int
		want    map[string]any
	}{
		{
			name:    "base keys only",
			kind:    KindState,
			attrs:   map[string]any{"name": "CA"},
			updates: map[string]any{"id": "x", "created_at": "y"},
			applied: 0,
			want:    map[string]any{"name": "CA"},
		},
		{
			name:    "user email is frozen",
			kind:    KindUser,
			attrs:   map[string]any{"email": "a@b.c", "password": "pw"},
			updates: map[string]any{"email": "z@z.z", "first_name": "Ada"},
			applied: 1,
			want:    map[string]any{"email": "a@b.c", "first_name": "Ada"},
		},
		{
			name:    "unknown keys are kept",
			kind:    KindAmenity,
			attrs:   map[string]any{"name": "wifi"},
			updates: map[string]any{"speed": "fast"},
			applied: 1,
			want:    map[string]any{"name": "wifi", "speed": "fast"},
		},
		{
			name:    "place foreign keys are frozen",
			kind:    KindPlace,
			attrs:   map[string]any{"name": "loft", "city_id": "c1", "user_id": "u1"},
			updates: map[string]any{"city_id": "c2", "user_id": "u2", "name": "attic"},
			applied: 1,
			want:    map[string]any{"name": "attic", "city_id": "c1", "user_id": "u1"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := New(tc.kind, tc.attrs)
			before := e.UpdatedAt

			n := e.Apply(tc.updates)

			assert.Equal(t, tc.applied, n)
			for k, v := range tc.want {
				got, _ := e.Get(k)
				assert.Equal(t, v, got, k)
			}
			assert.Equal(t, tc.applied > 0, e.Dirty())
			if tc.applied == 0 {
				assert.Equal(t, before, e.UpdatedAt)
			}
		})
	}
}

func TestToMapHidesPassword(t *testing.T) {
	e := New(KindUser, map[string]any{"email": "a@b.c", "password": "secret"})

	m := e.ToMap()

	assert.NotContains(t, m, "password")
	assert.Equal(t, e.ID, m["id"])
	assert.Equal(t, "User", m["__class__"])
	assert.Equal(t, e.CreatedAt.Format(TimeFormat), m["created_at"])

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestCloneIsIndependent(t *testing.T) {
	e := New(KindCity, map[string]any{"name": "SF"})
	c := e.Clone()
	c.Set("name", "LA")

	assert.Equal(t, "SF", e.String("name"))
	assert.False(t, e.Dirty())
}

func TestDependents(t *testing.T) {
	assert.ElementsMatch(t, []Relation{{Field: "state_id", Kind: KindCity}}, Dependents(KindState))
	assert.ElementsMatch(t, []Relation{
		{Field: "user_id", Kind: KindPlace},
		{Field: "user_id", Kind: KindReview},
	}, Dependents(KindUser))
	assert.Empty(t, Dependents(KindAmenity))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Place")
	assert.True(t, ok)
	assert.Equal(t, KindPlace, k)

	_, ok = ParseKind("BaseModel")
	assert.False(t, ok)
}

func TestValidator(t *testing.T) {
	v := MustValidator()

	require.NoError(t, v.Validate(KindPlace, map[string]any{
		"name":         "loft",
		"number_rooms": float64(3),
		"latitude":     37.7,
		"extra":        []any{"anything"},
	}))

	err := v.Validate(KindPlace, map[string]any{"name": "loft", "number_rooms": "three"})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "number_rooms", fe.Field)

	err = v.Validate(KindState, map[string]any{"name": 12})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "name", fe.Field)
}
