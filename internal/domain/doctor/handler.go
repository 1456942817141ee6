package doctor

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
		return 0, apperr.BadRequest("Invalid doctor ID")
	}
	return id, nil
}

// Get returns one doctor for ?id= or ?cnp=, otherwise the filtered list.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		d, err := h.svc.Get(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, d)
	}
	if code := c.QueryParam("cnp"); code != "" {
		d, err := h.svc.GetByCNP(ctx, code)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, d)
	}

	filter := Filter{Search: c.QueryParam("search")}
	if raw := c.QueryParam("activ"); raw != "" {
		activ, err := payload.ParseBool(raw)
		if err != nil {
			return apperr.BadRequest("Invalid value for activ")
		}
		filter.Activ = &activ
	}

	items, total, err := h.svc.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctors": items,
		"total":   total,
	})
}

func (h *Handler) Create(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Create(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Doctor created successfully",
		"doctor":  d,
	})
}

func (h *Handler) Update(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Update(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	raw := c.QueryParam("id")
	if raw == "" {
		return apperr.Validation("Doctor ID is required")
	}
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor deactivated successfully",
		"id":      id,
	})
}
