package hospitalization

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/payload"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, paths ...string) {
	for _, p := range paths {
		e.GET(p, h.Get)
		e.POST(p, h.Create)
		e.PUT(p, h.Update)
		e.DELETE(p, h.Delete)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("Invalid hospitalization ID")
	}
	return id, nil
}

// Get serves three reads: the aggregate for ?id=, the episodes of one
// patient for ?cnp=, and the filtered list otherwise.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		sp, err := h.svc.Get(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, sp)
	}

	if code := c.QueryParam("cnp"); code != "" {
		items, err := h.svc.ListByPatient(ctx, code)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"spitalizari": items,
			"total":       len(items),
		})
	}

	items, total, err := h.svc.List(ctx, Filter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Sectie: c.QueryParam("sectie"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"spitalizari": items,
		"total":       total,
	})
}

func (h *Handler) Create(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	sp, err := h.svc.Create(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":     "Hospitalization created successfully",
		"spitalizare": sp,
	})
}

func (h *Handler) Update(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	sp, err := h.svc.Update(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Hospitalization updated successfully",
		"spitalizare": sp,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	raw := c.QueryParam("id")
	if raw == "" {
		return apperr.Validation("Hospitalization ID is required")
	}
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Hospitalization deleted successfully",
		"id":      id,
	})
}
