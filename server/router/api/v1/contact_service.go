package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/types"
)

type Contact struct {
	ID           string             `json:"id"`
	Entry        relationship.Entry `json:"entry"`
	Relationship types.Relationship `json:"relationship"`
}

// GetContact returns the directory entry and stored relationship of a contact.
func (s *APIV1Service) GetContact(c echo.Context) error {
	if s.Contacts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "contact store not configured")
	}
	ctx := c.Request().Context()
	contactID := c.Param("id")

	entry, err := s.Contacts.Lookup(ctx, contactID)
	if errors.Is(err, relationship.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "contact not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get contact").SetInternal(err)
	}
	rel, err := s.Contacts.GetRelationship(ctx, contactID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get relationship").SetInternal(err)
	}
	return c.JSON(http.StatusOK, Contact{ID: contactID, Entry: entry, Relationship: rel})
}

// UpdateContact applies a partial contact update and returns the result.
func (s *APIV1Service) UpdateContact(c echo.Context) error {
	if s.Contacts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "contact store not configured")
	}
	var update history.ContactUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := validateGroup(update.Group); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateRelationship(update.Relationship); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.Contacts.UpdateContact(c.Request().Context(), c.Param("id"), update); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update contact").SetInternal(err)
	}
	return s.GetContact(c)
}
