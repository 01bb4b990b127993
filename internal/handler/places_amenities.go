package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/amrouehab/AirBnB-clone-v3/internal/events"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// linkTarget resolves the place :id and the amenity :amenity_id and returns
// the amenity ids currently linked to the place.
func (h *Handler) linkTarget(c echo.Context) (st storage.Storage, place, amenity *model.Entity, linked []string, err error) {
	st, err = h.store(c)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx := c.Request().Context()
	placeID, amenityID := c.Param("id"), c.Param("amenity_id")

	if place, err = st.Get(ctx, model.KindPlace, placeID); err != nil {
		return nil, nil, nil, nil, describe(err, fmt.Sprintf("Place %s not found", placeID))
	}
	if amenity, err = st.Get(ctx, model.KindAmenity, amenityID); err != nil {
		return nil, nil, nil, nil, describe(err, fmt.Sprintf("Amenity %s not found", amenityID))
	}
	links, err := st.AmenityIDs(ctx, placeID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return st, place, amenity, links[placeID], nil
}

// PlaceAmenities lists the amenities linked to the place :id.
func (h *Handler) PlaceAmenities(c echo.Context) error {
	st, err := h.store(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	placeID := c.Param("id")
	if _, err := st.Get(ctx, model.KindPlace, placeID); err != nil {
		return describe(err, fmt.Sprintf("Place %s not found", placeID))
	}

	links, err := st.AmenityIDs(ctx, placeID)
	if err != nil {
		return err
	}
	out := make([]*model.Entity, 0, len(links[placeID]))
	for _, aid := range links[placeID] {
		a, err := st.Get(ctx, model.KindAmenity, aid)
		if storage.IsNotFound(err) {
			// dangling link rows are not part of the place
			continue
		}
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	return c.JSON(http.StatusOK, model.Maps(out))
}

// LinkAmenity links :amenity_id to the place :id. Linking twice is a no-op
// answered with 200 instead of 201.
func (h *Handler) LinkAmenity(c echo.Context) error {
	st, place, amenity, linked, err := h.linkTarget(c)
	if err != nil {
		return err
	}
	if slices.Contains(linked, amenity.ID) {
		return c.JSON(http.StatusOK, amenity)
	}

	st.Link(place.ID, amenity.ID)
	ch := events.NewChange(events.OpLink, model.KindPlace, place.ID)
	ch.AmenityID = amenity.ID
	if err := h.commit(c, st, ch); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, amenity)
}

// UnlinkAmenity removes the link between the place :id and :amenity_id.
func (h *Handler) UnlinkAmenity(c echo.Context) error {
	st, place, amenity, linked, err := h.linkTarget(c)
	if err != nil {
		return err
	}
	if !slices.Contains(linked, amenity.ID) {
		return notFound(fmt.Sprintf("Amenity %s not linked to Place %s", amenity.ID, place.ID))
	}

	st.Unlink(place.ID, amenity.ID)
	ch := events.NewChange(events.OpUnlink, model.KindPlace, place.ID)
	ch.AmenityID = amenity.ID
	if err := h.commit(c, st, ch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{})
}

// describe turns a failed lookup into a 404 carrying msg.
func describe(err error, msg string) error {
	if storage.IsNotFound(err) {
		return notFound(msg)
	}
	return err
}
