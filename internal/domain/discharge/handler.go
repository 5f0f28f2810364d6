package discharge

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/visits/:id/discharge-summary", auth.RequireRole("admin", "clinician"))
	g.GET("", h.Generate)
	g.GET("/latest", h.Latest)
}

// Latest serves the most recently archived summary without regenerating.
func (h *Handler) Latest(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.Latest(c.Request().Context(), visitID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, doc.Text)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Generate(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.Generate(c.Request().Context(), visitID, c.QueryParam("bill_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, doc.Text)
	}
	return c.JSON(http.StatusOK, doc)
}
