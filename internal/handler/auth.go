package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
	"github.com/amrouehab/AirBnB-clone-v3/internal/utils"
)

type loginResp struct {
	User   map[string]any    `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Login exchanges email and password for an access token. It only exists
// when a JWT secret is configured.
func (h *Handler) Login(c echo.Context) error {
	if h.JWTSecret == "" {
		return notFound("")
	}
	body, err := readObject(c)
	if err != nil {
		return err
	}
	email, _ := body["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return badRequest("Missing email")
	}
	password, _ := body["password"].(string)
	if password == "" {
		return badRequest("Missing password")
	}

	st, err := h.store(c)
	if err != nil {
		return err
	}
	u, err := userByEmail(c.Request().Context(), st, email)
	if err != nil && !storage.IsNotFound(err) {
		return err
	}
	if u == nil || !utils.VerifyPassword(u.String("password"), password) {
		return &APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}

	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.String("email"), h.AccessTTL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{User: u.ToMap(), Access: tok})
}
