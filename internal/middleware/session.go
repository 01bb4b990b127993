package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// SessionKey is the echo context key holding the request's storage session.
const SessionKey = "storage"

// Session opens one storage session per request and closes it when the
// handler returns, whether it succeeded, failed or panicked.
func Session(p *storage.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := p.Open()
			defer func() {
				if err := s.Close(); err != nil {
					zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("close storage session")
				}
			}()
			c.Set(SessionKey, s)
			return next(c)
		}
	}
}

// StorageFrom returns the session stored by Session, or nil.
func StorageFrom(c echo.Context) storage.Storage {
	s, _ := c.Get(SessionKey).(storage.Storage)
	return s
}
