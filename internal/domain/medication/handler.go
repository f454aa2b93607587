package medication

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/auth"
	"github.com/lumicare/lumi/pkg/caldate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the medication routes on g, which is expected to
// be rooted at /medications. Static segments win over :id in echo's router.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListMedications)
	g.POST("", h.CreateMedication)
	g.GET("/logs", h.ListLogs)
	g.GET("/adherence", h.GetAdherence)
	g.GET("/:id", h.GetMedication)
	g.POST("/:id/log", h.LogMedication)
}

// -- Medication Handlers --

func (h *Handler) CreateMedication(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.CreateMedication(c.Request().Context(), uid, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMedications(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListMedications(c.Request().Context(), uid)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMedication(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedication(c.Request().Context(), uid, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

// -- Log Handlers --

func (h *Handler) LogMedication(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req LogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	l, created, err := h.svc.UpsertLog(c.Request().Context(), uid, id, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, l)
}

func (h *Handler) ListLogs(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	start, end, err := parseRange(c)
	if err != nil {
		return err
	}
	logs, err := h.svc.ListLogs(c.Request().Context(), uid, start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) GetAdherence(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	start, end, err := parseRange(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.AdherenceSummary(c.Request().Context(), uid, start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func parseRange(c echo.Context) (caldate.Date, caldate.Date, error) {
	var dates [2]caldate.Date
	for i, name := range []string{"start_date", "end_date"} {
		raw := c.QueryParam(name)
		if raw == "" {
			return caldate.Date{}, caldate.Date{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
		}
		d, err := caldate.Parse(raw)
		if err != nil {
			return caldate.Date{}, caldate.Date{}, echo.NewHTTPError(http.StatusBadRequest, name+": "+err.Error())
		}
		dates[i] = d
	}
	return dates[0], dates[1], nil
}
