package postop

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor, auth.RoleNurse))
	g.POST("/postoperative", h.Create)
	g.GET("/postoperative/overdue", h.Overdue)
	g.GET("/postoperative/non-adherent", h.NonAdherent)
	g.GET("/postoperative/patient/:patientId", h.ListByPatient)
	g.GET("/postoperative/surgery/:surgeryId", h.ListBySurgery)
	g.GET("/postoperative/:id", h.Get)
	g.PUT("/postoperative/:id", h.Update)
}

func (h *Handler) Create(c echo.Context) error {
	var f Followup
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var f Followup
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.ID = id
	if err := h.svc.Update(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
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
		items = []*Followup{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Overdue(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Overdue(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) NonAdherent(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.NonAdherent(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
