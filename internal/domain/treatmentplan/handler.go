package treatmentplan

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mila-health/mila/internal/platform/auth"
	"github.com/mila-health/mila/pkg/i18n"
	"github.com/mila-health/mila/pkg/pagination"
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
	g.POST("/plans", h.Create)
	g.GET("/plans/:id", h.Get)
	g.DELETE("/plans/:id", h.Delete)
	g.GET("/patients/:id/plans", h.ListByPatient)
	g.GET("/plans/:id/amendments", h.Amendments)

	g.POST("/plans/:id/actions", h.AddAction)
	g.DELETE("/plans/:id/actions/:actionId", h.RemoveAction)
	g.POST("/plans/:id/actions/:actionId/complete", h.CompleteAction)
	g.PATCH("/plans/:id/actions/:actionId/dosage", h.ChangeDosage)

	g.POST("/plans/:id/hold", h.Hold)
	g.POST("/plans/:id/resume", h.Resume)
	g.POST("/plans/:id/complete", h.Complete)
	g.POST("/plans/:id/cancel", h.Cancel)
	g.POST("/plans/:id/amendments", h.Amend)
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrActionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPlanOnHold), errors.Is(err, ErrPlanNotOnHold),
		errors.Is(err, ErrPlanTerminal), errors.Is(err, ErrPlanNotTerminal),
		errors.Is(err, ErrActionCompleted), errors.Is(err, ErrActionRemoved):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func planError(err error) error {
	return echo.NewHTTPError(httpStatusFor(err), err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	var req CreatePlan
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), req, auth.ActorFromContext(c.Request().Context()))
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return planError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Amendments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ams, err := h.svc.Amendments(c.Request().Context(), id)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, ams)
}

// noteRequest is the shared body for transitions that carry a bilingual note.
type noteRequest struct {
	Note i18n.Text `json:"note"`
}

// reasonRequest is the body for transitions that record a clinical reason
// (hold, cancel, action removal).
type reasonRequest struct {
	Reason i18n.Text `json:"reason"`
}

func (h *Handler) planID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

type addActionRequest struct {
	CreateAction
	Note i18n.Text `json:"note"`
}

func (h *Handler) AddAction(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req addActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AddAction(c.Request().Context(), id, req.CreateAction,
		auth.ActorFromContext(c.Request().Context()), req.Note)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) actionIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actionID, err := uuid.Parse(c.Param("actionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid action id")
	}
	return planID, actionID, nil
}

func (h *Handler) RemoveAction(c echo.Context) error {
	planID, actionID, err := h.actionIDs(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RemoveAction(c.Request().Context(), planID, actionID,
		auth.ActorFromContext(c.Request().Context()), req.Reason)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CompleteAction(c echo.Context) error {
	planID, actionID, err := h.actionIDs(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CompleteAction(c.Request().Context(), planID, actionID,
		auth.ActorFromContext(c.Request().Context()), req.Note)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type dosageRequest struct {
	Dosage string    `json:"dosage"`
	Note   i18n.Text `json:"note"`
}

func (h *Handler) ChangeDosage(c echo.Context) error {
	planID, actionID, err := h.actionIDs(c)
	if err != nil {
		return err
	}
	var req dosageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.ChangeDosage(c.Request().Context(), planID, actionID, req.Dosage,
		auth.ActorFromContext(c.Request().Context()), req.Note)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Hold(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Hold(c.Request().Context(), id,
		auth.ActorFromContext(c.Request().Context()), req.Reason)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Resume(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Resume(c.Request().Context(), id,
		auth.ActorFromContext(c.Request().Context()), req.Note)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type outcomeRequest struct {
	Outcome i18n.Text `json:"outcome"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req outcomeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Complete(c.Request().Context(), id,
		auth.ActorFromContext(c.Request().Context()), req.Outcome)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Cancel(c.Request().Context(), id,
		auth.ActorFromContext(c.Request().Context()), req.Reason)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type amendRequest struct {
	Type   AmendmentType `json:"type"`
	Note   i18n.Text     `json:"note"`
	Reason i18n.Text     `json:"reason"`
}

func (h *Handler) Amend(c echo.Context) error {
	id, err := h.planID(c)
	if err != nil {
		return err
	}
	var req amendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Amend(c.Request().Context(), id, req.Type,
		auth.ActorFromContext(c.Request().Context()), req.Note, req.Reason)
	if err != nil {
		return planError(err)
	}
	return c.JSON(http.StatusOK, p)
}
