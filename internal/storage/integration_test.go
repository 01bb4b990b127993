//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/amrouehab/AirBnB-clone-v3/internal/database"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// startPostgres runs a throwaway postgres and returns a migrated provider.
func startPostgres(t *testing.T) *Provider {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "hbnb",
			"POSTGRES_PASSWORD": "hbnb",
			"POSTGRES_DB":       "hbnb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.OpenPostgres(fmt.Sprintf("postgres://hbnb:hbnb@%s:%s/hbnb?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, "postgres"))

	p := NewSQL(db, Postgres)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPostgresEndToEnd(t *testing.T) {
	ctx := context.Background()
	p := startPostgres(t)

	st := model.New(model.KindState, map[string]any{"name": "CA"})
	city := model.New(model.KindCity, map[string]any{"name": "SF", "state_id": st.ID})
	place := model.New(model.KindPlace, map[string]any{"name": "loft", "city_id": city.ID, "price_by_night": float64(90)})
	wifi := model.New(model.KindAmenity, map[string]any{"name": "wifi"})
	pool := model.New(model.KindAmenity, map[string]any{"name": "pool"})

	s := p.Open()
	for _, e := range []*model.Entity{st, city, place, wifi, pool} {
		s.New(e)
	}
	s.Link(place.ID, wifi.ID)
	s.Link(place.ID, pool.ID)
	s.Link(place.ID, wifi.ID)
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Close())

	s = p.Open()
	got, err := s.Get(ctx, model.KindPlace, place.ID)
	require.NoError(t, err)
	price, _ := got.Get("price_by_night")
	assert.Equal(t, float64(90), price)
	assert.True(t, place.CreatedAt.Equal(got.CreatedAt))

	links, err := s.AmenityIDs(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{wifi.ID, pool.ID}, links[place.ID])

	state, err := s.Get(ctx, model.KindState, st.ID)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, state))
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Close())

	s = p.Open()
	defer s.Close()
	places, err := s.All(ctx, model.KindPlace)
	require.NoError(t, err)
	assert.Empty(t, places)
	links, err = s.AmenityIDs(ctx, place.ID)
	require.NoError(t, err)
	assert.Empty(t, links[place.ID])
	amenities, err := s.All(ctx, model.KindAmenity)
	require.NoError(t, err)
	assert.Len(t, amenities, 2)
}
