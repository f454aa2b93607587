package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumicare/lumi/internal/platform/apperr"
	"github.com/lumicare/lumi/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	a := e.Group("/auth")
	a.POST("/check-user", h.CheckUser)
	a.POST("/login", h.Login)
	a.POST("/register", h.Register)
	a.POST("/logout", h.Logout)

	e.GET("/users/me", h.GetMe)
	e.PUT("/users/me", h.UpdateMe)
}

type checkUserRequest struct {
	Phone string `json:"phone"`
}

type loginRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *Handler) CheckUser(c echo.Context) error {
	var req checkUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	exists, err := h.svc.CheckExists(c.Request().Context(), req.Phone)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	token, err := h.svc.Login(c.Request().Context(), req.Phone, req.OTP)
	if err != nil {
		he := apperr.ToHTTP(err)
		if he.Code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		return he
	}
	return c.JSON(http.StatusOK, bearer(token))
}

func (h *Handler) Register(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	_, token, err := h.svc.Register(c.Request().Context(), p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, bearer(token))
}

func (h *Handler) Logout(c echo.Context) error {
	claims, _ := auth.ClaimsFromContext(c.Request().Context())
	if err := h.svc.Logout(c.Request().Context(), claims); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) GetMe(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Me(c.Request().Context(), uid)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	uid, err := auth.CurrentUserID(c)
	if err != nil {
		return err
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), uid, p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, u)
}
