package handler

import (
	"context"
	"strings"

	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
	"github.com/amrouehab/AirBnB-clone-v3/internal/utils"
)

// hashPassword replaces a plain "password" attribute with its bcrypt hash.
func (h *Handler) hashPassword(attrs map[string]any) error {
	plain, ok := attrs["password"].(string)
	if !ok {
		return nil
	}
	hash, err := utils.HashPassword(plain, h.BcryptCost)
	if err != nil {
		return err
	}
	attrs["password"] = hash
	return nil
}

// userByEmail finds the user with the given email, ignoring case.
func userByEmail(ctx context.Context, st storage.Storage, email string) (*model.Entity, error) {
	users, err := st.All(ctx, model.KindUser)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.String("email"), email) {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}
