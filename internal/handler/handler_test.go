package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
	"github.com/amrouehab/AirBnB-clone-v3/internal/utils"
)

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		method string
		err    error
		status int
		body   string
	}{
		{"api error", http.MethodGet, badRequest("Missing name"), http.StatusBadRequest, `{"error":"Missing name"}`},
		{"wrapped storage miss", http.MethodGet, fmt.Errorf("get: %w", storage.ErrNotFound), http.StatusNotFound, `{"error":"Not found"}`},
		{"echo 404", http.MethodGet, echo.ErrNotFound, http.StatusNotFound, `{"error":"Not found"}`},
		{"echo 405", http.MethodGet, echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, `{"error":"Method Not Allowed"}`},
		{"internal", http.MethodGet, errors.New("disk on fire"), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
		{"head", http.MethodHead, notFound(""), http.StatusNotFound, ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(tc.method, "/", nil), rec)

			ErrorHandler(tc.err, c)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body == "" {
				assert.Empty(t, rec.Body.String())
			} else {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestReadBody(t *testing.T) {
	read := func(body string) (any, bool, error) {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), httptest.NewRecorder())
		return readBody(c)
	}

	_, present, err := read("  \n")
	require.NoError(t, err)
	assert.False(t, present)

	v, present, err := read("null")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Nil(t, v)

	_, _, err = read("{nope")
	assert.Same(t, errNotJSON, err)

	v, _, err = read(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringList([]any{"a", 3.0, nil, "b"}))
	assert.Nil(t, stringList("a"))
	assert.Nil(t, stringList(nil))
}

func TestHashPassword(t *testing.T) {
	h := New(config.Config{BcryptCost: 4}, model.MustValidator(), nil)

	attrs := map[string]any{"password": "pw"}
	require.NoError(t, h.hashPassword(attrs))
	hash := attrs["password"].(string)
	assert.NotEqual(t, "pw", hash)
	assert.True(t, utils.VerifyPassword(hash, "pw"))

	none := map[string]any{"first_name": "Ada"}
	require.NoError(t, h.hashPassword(none))
	assert.NotContains(t, none, "password")
}

func TestNewPanicsWithoutValidator(t *testing.T) {
	assert.Panics(t, func() { New(config.Config{}, nil, nil) })
}
