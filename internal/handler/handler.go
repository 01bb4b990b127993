// Package handler implements the HTTP endpoints of the API. Every handler
// works on the storage session opened for its request by the session
// middleware and reports failures as errors rendered by ErrorHandler.
package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/events"
	"github.com/amrouehab/AirBnB-clone-v3/internal/logging"
	"github.com/amrouehab/AirBnB-clone-v3/internal/middleware"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// publishTimeout bounds how long a write waits on the event broker.
const publishTimeout = 2 * time.Second

// Handler bundles the dependencies shared by all endpoints.
type Handler struct {
	Validator  *model.Validator // Validator type-checks request bodies
	Events     events.Publisher // Events receives one change per committed write
	BcryptCost int              // BcryptCost is used when hashing user passwords
	JWTSecret  string           // JWTSecret signs access tokens; empty disables login
	AccessTTL  time.Duration    // AccessTTL is the lifetime of issued tokens
}

// New constructs a Handler and panics if the validator is missing. A nil
// publisher drops events.
func New(cfg config.Config, v *model.Validator, pub events.Publisher) *Handler {
	if v == nil {
		panic("nil validator passed to handler.New")
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{
		Validator:  v,
		Events:     pub,
		BcryptCost: cfg.BcryptCost,
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
	}
}

// store returns the request's storage session.
func (h *Handler) store(c echo.Context) (storage.Storage, error) {
	st := middleware.StorageFrom(c)
	if st == nil {
		return nil, fmt.Errorf("no storage session on %s %s", c.Request().Method, c.Path())
	}
	return st, nil
}

// readBody returns the decoded JSON body, or present=false when the body is
// empty.
func readBody(c echo.Context) (v any, present bool, err error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, true, errNotJSON
	}
	return v, true, nil
}

// readObject decodes a body that must be a JSON object.
func readObject(c echo.Context) (map[string]any, error) {
	v, present, err := readBody(c)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !present || !ok {
		return nil, errNotJSON
	}
	return m, nil
}

// validate maps a schema violation to "Invalid <field>".
func (h *Handler) validate(kind model.Kind, body map[string]any) error {
	err := h.Validator.Validate(kind, body)
	var fe *model.FieldError
	if errors.As(err, &fe) {
		return badRequest("Invalid " + fe.Field)
	}
	return err
}

// commit saves the session and then publishes the changes it carried.
// Publish failures are logged only; the write already happened.
func (h *Handler) commit(c echo.Context, st storage.Storage, changes ...events.Change) error {
	ctx := c.Request().Context()
	if err := st.Save(ctx); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if len(changes) == 0 {
		return nil
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	rid := middleware.RequestID(c)
	for _, ch := range changes {
		ch.RequestID = rid
		if err := h.Events.Publish(pctx, ch); err != nil {
			logging.From(ctx).Warn().Err(err).
				Str("op", string(ch.Op)).
				Str("kind", string(ch.Kind)).
				Str("id", ch.ID).
				Msg("publish change")
		}
	}
	return nil
}
