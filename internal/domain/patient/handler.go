package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eessp/eessp/internal/platform/payload"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the resource on each path. Methods other than
// GET/POST/PUT/DELETE get a 405 from the router.
func (h *Handler) RegisterRoutes(e *echo.Echo, paths ...string) {
	for _, p := range paths {
		e.GET(p, h.Get)
		e.POST(p, h.Create)
		e.PUT(p, h.Update)
		e.DELETE(p, h.Delete)
	}
}

// Get returns one patient for ?cnp=, otherwise the filtered list.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	if code := c.QueryParam("cnp"); code != "" {
		p, err := h.svc.Get(ctx, code)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, p)
	}

	items, total, err := h.svc.List(ctx, Filter{Search: c.QueryParam("search")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patients": items,
		"total":    total,
	})
}

func (h *Handler) Create(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient created successfully",
		"patient": p,
	})
}

func (h *Handler) Update(c echo.Context) error {
	f, err := payload.Bind(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	code := c.QueryParam("cnp")
	if err := h.svc.Delete(c.Request().Context(), code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient deleted successfully",
		"cnp":     code,
	})
}
