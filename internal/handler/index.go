package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
)

// Status reports that the API is serving.
func Status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}

// Stats counts the stored entities of every kind, keyed by plural name.
func (h *Handler) Stats(c echo.Context) error {
	st, err := h.store(c)
	if err != nil {
		return err
	}
	out := make(map[string]int, len(model.Kinds))
	for _, k := range model.Kinds {
		items, err := st.All(c.Request().Context(), k)
		if err != nil {
			return err
		}
		out[model.SchemaOf(k).Plural] = len(items)
	}
	return c.JSON(http.StatusOK, out)
}
