package decision

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – every clinical role
	readGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor, auth.RoleNurse))
	readGroup.GET("/surgical-decisions/surgery/:surgeryId", h.ListBySurgery)
	readGroup.GET("/surgical-decisions/consensus/:surgeryId", h.GetConsensus)
	readGroup.GET("/surgical-decisions/consensus/:surgeryId/reached", h.HasConsensus)

	// Only surgeons vote
	writeGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon))
	writeGroup.POST("/surgical-decisions", h.Submit)
}

type submitResponse struct {
	Decision  *SurgicalDecision `json:"decision"`
	Consensus *Consensus        `json:"consensus"`
}

func (h *Handler) Submit(c echo.Context) error {
	var d SurgicalDecision
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	consensus, err := h.svc.Submit(c.Request().Context(), &d)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, submitResponse{Decision: &d, Consensus: consensus})
}

func (h *Handler) GetConsensus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("surgeryId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid surgery id")
	}
	consensus, err := h.svc.GetConsensus(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, consensus)
}

func (h *Handler) HasConsensus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("surgeryId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid surgery id")
	}
	reached, err := h.svc.HasConsensus(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"surgery_id":        id,
		"consensus_reached": reached,
	})
}

func (h *Handler) ListBySurgery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("surgeryId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid surgery id")
	}
	items, err := h.svc.ListBySurgery(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*SurgicalDecision{}
	}
	return c.JSON(http.StatusOK, items)
}
