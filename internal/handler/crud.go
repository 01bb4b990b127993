package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/events"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// The handlers below implement the same contract for every kind. Routes bind
// them per kind; child collections take the parent id from the :id segment.

// List returns every entity of kind.
func (h *Handler) List(kind model.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		items, err := st.All(c.Request().Context(), kind)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, model.Maps(items))
	}
}

// ListChildren returns the entities of kind whose parent is :id.
func (h *Handler) ListChildren(kind model.Kind) echo.HandlerFunc {
	parent := model.SchemaOf(kind).Parent
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		pid := c.Param("id")
		if _, err := st.Get(ctx, parent.Kind, pid); err != nil {
			return lookupErr(err)
		}
		items, err := st.Children(ctx, kind, parent.Field, pid)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, model.Maps(items))
	}
}

// Get returns the entity of kind identified by :id.
func (h *Handler) Get(kind model.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		e, err := st.Get(c.Request().Context(), kind, c.Param("id"))
		if err != nil {
			return lookupErr(err)
		}
		return c.JSON(http.StatusOK, e)
	}
}

// Delete removes the entity identified by :id and everything under it.
func (h *Handler) Delete(kind model.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		e, err := st.Get(ctx, kind, c.Param("id"))
		if err != nil {
			return lookupErr(err)
		}
		if err := st.Delete(ctx, e); err != nil {
			return err
		}
		if err := h.commit(c, st, events.NewChange(events.OpDelete, kind, e.ID)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{})
	}
}

// Create builds a new entity of kind from the request body. For kinds with a
// parent the parent is :id and overrides any parent id in the body.
func (h *Handler) Create(kind model.Kind) echo.HandlerFunc {
	s := model.SchemaOf(kind)
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()

		var parentID string
		if s.Parent != nil {
			parentID = c.Param("id")
			if _, err := st.Get(ctx, s.Parent.Kind, parentID); err != nil {
				return lookupErr(err)
			}
		}

		body, err := readObject(c)
		if err != nil {
			return err
		}
		for _, field := range s.Required {
			if _, ok := body[field]; !ok {
				return badRequest("Missing " + field)
			}
		}
		if err := h.validate(kind, body); err != nil {
			return err
		}
		for _, ref := range s.Refs {
			id, _ := body[ref.Field].(string)
			if _, err := st.Get(ctx, ref.Kind, id); err != nil {
				return lookupErr(err)
			}
		}
		if s.Parent != nil {
			body[s.Parent.Field] = parentID
		}
		if err := h.prepare(kind, body); err != nil {
			return err
		}

		e := model.New(kind, body)
		st.New(e)
		if err := h.commit(c, st, events.NewChange(events.OpCreate, kind, e.ID)); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, e)
	}
}

// Update assigns every key of the body a client may change onto the entity
// identified by :id. Base keys and the kind's immutable keys are skipped.
func (h *Handler) Update(kind model.Kind) echo.HandlerFunc {
	s := model.SchemaOf(kind)
	return func(c echo.Context) error {
		st, err := h.store(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		e, err := st.Get(ctx, kind, c.Param("id"))
		if err != nil {
			return lookupErr(err)
		}

		body, err := readObject(c)
		if err != nil {
			return err
		}
		updates := make(map[string]any, len(body))
		for k, v := range body {
			if !s.IgnoredOnUpdate(k) {
				updates[k] = v
			}
		}
		if err := h.validate(kind, updates); err != nil {
			return err
		}
		if err := h.prepare(kind, updates); err != nil {
			return err
		}

		var changes []events.Change
		if e.Apply(updates) > 0 {
			changes = append(changes, events.NewChange(events.OpUpdate, kind, e.ID))
		}
		if err := h.commit(c, st, changes...); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, e)
	}
}

// prepare rewrites attributes that are not stored as sent.
func (h *Handler) prepare(kind model.Kind, attrs map[string]any) error {
	if kind == model.KindUser {
		return h.hashPassword(attrs)
	}
	return nil
}

// lookupErr turns a failed lookup into the uniform 404.
func lookupErr(err error) error {
	if storage.IsNotFound(err) {
		return notFound("")
	}
	return err
}
