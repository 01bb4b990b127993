package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/search"
)

// PlacesSearch returns the places matching the optional states, cities and
// amenities filters of the body. An empty or null body, or one without
// filters, returns every place.
func (h *Handler) PlacesSearch(c echo.Context) error {
	v, present, err := readBody(c)
	if err != nil {
		return err
	}
	var q search.Query
	if present && v != nil {
		body, ok := v.(map[string]any)
		if !ok {
			return errNotJSON
		}
		q = search.Query{
			States:    stringList(body["states"]),
			Cities:    stringList(body["cities"]),
			Amenities: stringList(body["amenities"]),
		}
	}

	st, err := h.store(c)
	if err != nil {
		return err
	}
	places, err := search.Places(c.Request().Context(), st, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, model.Maps(places))
}

// stringList keeps the string elements of a JSON array; anything else is an
// empty filter.
func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
