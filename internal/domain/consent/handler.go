package consent

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
	// Consent is taken and read by the whole care team
	g := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor, auth.RoleNurse))
	g.POST("/consent", h.Submit)
	g.GET("/consent/pending", h.ListPending)
	g.GET("/consent/:id", h.Get)
	g.PUT("/consent/:id/file-path", h.UpdateFilePath)
	g.GET("/consent/surgery/:id", h.GetBySurgery)
	g.GET("/consent/surgery/:id/has-valid", h.HasValidConsent)
}

func (h *Handler) Submit(c echo.Context) error {
	var cs Consent
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SubmitConsent(c.Request().Context(), &cs); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, cs)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cs, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) GetBySurgery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid surgery id")
	}
	items, err := h.svc.GetBySurgery(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if items == nil {
		items = []*Consent{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) HasValidConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid surgery id")
	}
	ok, err := h.svc.HasValidConsent(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"surgery_id":        id,
		"has_valid_consent": ok,
	})
}

func (h *Handler) ListPending(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.GetPendingConsentSurgeries(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateFilePath(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		FilePath string `json:"file_path"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs, err := h.svc.UpdateFilePath(c.Request().Context(), id, body.FilePath)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, cs)
}
