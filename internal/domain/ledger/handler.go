package ledger

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

// PharmacySource supplies the already-loaded medication lines for a
// visit. The ledger never queries dispenses itself.
type PharmacySource interface {
	Lines(ctx context.Context, visitCode string) ([]MedicationLine, error)
}

type Handler struct {
	svc  *Service
	meds PharmacySource
}

func NewHandler(svc *Service, meds PharmacySource) *Handler {
	return &Handler{svc: svc, meds: meds}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/bills/:billId/summary", auth.RequireRole("admin", "billing"))
	g.GET("", h.GetSummary)
	g.PUT("", h.Save)
	g.PUT("/cells", h.SetCell)
	g.POST("/populate", h.Populate)
	g.POST("/recalculate", h.Recalculate)
	g.GET("/discount", h.GetDiscount)
	g.PUT("/discount", h.PutDiscount)
	g.DELETE("", h.Clear)
}

func httpErr(err error) error {
	switch {
	case errors.Is(err, ErrMissingBillID):
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingBillID.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// GetSummary loads the persisted ledger, falling back through the
// recovery chain when no remote row exists.
func (h *Handler) GetSummary(c echo.Context) error {
	summary, err := h.svc.Load(c.Request().Context(), c.Param("billId"), c.QueryParam("visit_code"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) SetCell(c echo.Context) error {
	var body struct {
		Row      RowName  `json:"row"`
		Category Category `json:"category"`
		Value    string   `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	billID := c.Param("billId")
	if err := h.svc.SetCell(c.Request().Context(), billID, body.Row, body.Category, body.Value); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	summary, _ := h.svc.Snapshot(billID)
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Save(c echo.Context) error {
	if err := h.svc.Save(c.Request().Context(), c.Param("billId")); err != nil {
		return httpErr(err)
	}
	summary, _ := h.svc.Snapshot(c.Param("billId"))
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Populate(c echo.Context) error {
	ctx := c.Request().Context()
	billID := c.Param("billId")
	visitCode := c.QueryParam("visit_code")

	var meds []MedicationLine
	if visitCode != "" {
		lines, err := h.meds.Lines(ctx, visitCode)
		if err == nil {
			meds = lines
		}
	}

	summary, queued, err := h.svc.AutoPopulate(ctx, billID, visitCode, meds)
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"queued":  queued,
		"summary": summary,
	})
}

func (h *Handler) Recalculate(c echo.Context) error {
	summary, err := h.svc.RecalculateBalance(c.Request().Context(), c.Param("billId"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetDiscount(c echo.Context) error {
	row, err := h.svc.DiscountRow(c.Request().Context(), c.Param("billId"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handler) PutDiscount(c echo.Context) error {
	var body map[Category]string
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	row := make(Row, len(body))
	for cat, raw := range body {
		cell, err := CellFromString(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		row[cat] = cell
	}
	if err := h.svc.SaveDiscount(c.Request().Context(), c.Param("billId"), row); err != nil {
		return httpErr(err)
	}
	out, err := h.svc.DiscountRow(c.Request().Context(), c.Param("billId"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Clear(c echo.Context) error {
	h.svc.Clear(c.Param("billId"))
	return c.NoContent(http.StatusNoContent)
}
