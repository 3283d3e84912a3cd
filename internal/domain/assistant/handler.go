package assistant

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mila-health/mila/internal/domain/treatmentplan"
	"github.com/mila-health/mila/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("physician", "nurse")

	g := api.Group("", role)
	g.POST("/assistant/chat", h.Chat)
	g.POST("/assistant/accept-plan", h.AcceptPlan)
}

func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.svc.Chat(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) AcceptPlan(c echo.Context) error {
	var req treatmentplan.CreatePlan
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AcceptPlan(c.Request().Context(), req, auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}
