package notification

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/auth"
	"github.com/kelly-developers/patientcare-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the caller-scoped inbox for any authenticated user
// and the write endpoints for clinical staff.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/notifications", h.List)
	api.GET("/notifications/unread", h.Unread)
	api.GET("/notifications/due", h.Due)
	api.PUT("/notifications/read-all", h.MarkAllAsRead)
	api.PUT("/notifications/:id/read", h.MarkAsRead)

	g := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor, auth.RoleNurse))
	g.POST("/notifications", h.Create)
	g.POST("/notifications/emergency", h.Emergency)
}

type emergencyRequest struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) Emergency(c echo.Context) error {
	var req emergencyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	sent, err := h.svc.SendEmergencyAlert(c.Request().Context(), req.Title, req.Message, req.PatientID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]int{"recipients": sent})
}

func (h *Handler) Create(c echo.Context) error {
	var n Notification
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &n); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) List(c echo.Context) error {
	caller, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForRecipient(c.Request().Context(), caller, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Unread(c echo.Context) error {
	caller, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	items, err := h.svc.ListUnread(c.Request().Context(), caller)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Due(c echo.Context) error {
	caller, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	items, err := h.svc.Due(c.Request().Context(), caller)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkAsRead(c echo.Context) error {
	caller, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkAsRead(c.Request().Context(), id, caller); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllAsRead(c echo.Context) error {
	caller, err := auth.CallerID(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	n, err := h.svc.MarkAllAsRead(c.Request().Context(), caller)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}
