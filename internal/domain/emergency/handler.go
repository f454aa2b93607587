package emergency

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/auth"
	"github.com/lumicare/lumi/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAlerts)
	g.POST("", h.Trigger)
	g.GET("/active", h.GetActive)
	g.POST("/:id/resolve", h.Resolve)
}

func (h *Handler) GetActive(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetActive(c.Request().Context(), uid)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Trigger(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	var req TriggerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, created, err := h.svc.Trigger(c.Request().Context(), uid, req.Stage)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, a)
}

func (h *Handler) Resolve(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Resolve(c.Request().Context(), uid, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAlerts(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAlerts(c.Request().Context(), uid, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks("/emergency"))
}
