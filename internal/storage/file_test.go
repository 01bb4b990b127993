package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "file.json")

	p, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name())

	user := model.New(model.KindUser, map[string]any{"email": "a@b.c", "password": "hash"})
	place := model.New(model.KindPlace, map[string]any{"name": "loft", "user_id": user.ID, "number_rooms": float64(2)})
	wifi := model.New(model.KindAmenity, map[string]any{"name": "wifi"})
	s := p.Open()
	s.New(user)
	s.New(place)
	s.New(wifi)
	s.Link(place.ID, wifi.ID)
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Close())
	require.NoError(t, p.Close())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	s = reopened.Open()
	defer s.Close()

	got, err := s.Get(ctx, model.KindUser, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.String("password"))
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt))

	gotPlace, err := s.Get(ctx, model.KindPlace, place.ID)
	require.NoError(t, err)
	rooms, _ := gotPlace.Get("number_rooms")
	assert.Equal(t, float64(2), rooms)

	links, err := s.AmenityIDs(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{wifi.ID}, links[place.ID])
}

func TestOpenFileMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenFile(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = OpenFile(empty)
	require.NoError(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"objects":{"Nope.1":{}}}`), 0o600))
	_, err = OpenFile(broken)
	assert.Error(t, err)
}
