package surgery

import (
	"net/http"
	"time"

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
	// Reads and charting – every clinical role
	clinicalGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor, auth.RoleNurse))
	clinicalGroup.GET("/surgeries", h.List)
	clinicalGroup.GET("/surgeries/:id", h.Get)
	clinicalGroup.GET("/during-operation/:id", h.GetRecord)
	clinicalGroup.GET("/during-operation/surgery/:surgeryId", h.GetRecordBySurgery)
	clinicalGroup.PUT("/during-operation/:id/vitals", h.UpdateVitals)
	clinicalGroup.POST("/during-operation/:id/notes", h.AddSurgicalNote)
	clinicalGroup.POST("/during-operation/:id/complications", h.AddComplication)
	clinicalGroup.POST("/during-operation/:id/emergency", h.DeclareEmergency)

	// Lifecycle writes – surgeons and doctors
	writeGroup := api.Group("", auth.RequireRole(auth.RoleSurgeon, auth.RoleDoctor))
	writeGroup.POST("/surgeries", h.Create)
	writeGroup.PUT("/surgeries/:id/schedule", h.Schedule)
	writeGroup.POST("/surgeries/:id/cancel", h.Cancel)
	writeGroup.POST("/during-operation", h.StartOperation)
	writeGroup.PUT("/during-operation/:id", h.UpdateOperation)
	writeGroup.PUT("/during-operation/:id/complete", h.CompleteOperation)

	// Administrative override
	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.PUT("/surgeries/:id/status", h.UpdateStatus)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// -- Surgery Handlers --

func (h *Handler) Create(c echo.Context) error {
	var sg Surgery
	if err := c.Bind(&sg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &sg); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, sg)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	sg, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sg)
}

func (h *Handler) List(c echo.Context) error {
	var f ListFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = id
	}
	if v := c.QueryParam("status"); v != "" {
		st, err := ParseStatus(v)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		f.Status = st
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Schedule(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		ScheduledDate time.Time `json:"scheduled_date"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sg, err := h.svc.Schedule(c.Request().Context(), id, body.ScheduledDate)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sg)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sg, err := h.svc.Cancel(c.Request().Context(), id, body.Reason)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sg)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sg, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, sg)
}

// -- Intra-operative Handlers --

func (h *Handler) StartOperation(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.StartOperation(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CompleteOperation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.svc.CompleteOperation(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetRecordBySurgery(c echo.Context) error {
	id, err := parseID(c, "surgeryId")
	if err != nil {
		return err
	}
	rec, err := h.svc.GetRecordBySurgery(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateVitals(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var v Vitals
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateVitals(c.Request().Context(), id, v)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateOperation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var p OperationPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateOperation(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) AddSurgicalNote(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var n SurgicalNote
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if n.Author == "" {
		n.Author = auth.UserIDFromContext(c.Request().Context())
	}
	rec, err := h.svc.AddSurgicalNote(c.Request().Context(), id, n)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) AddComplication(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var cp Complication
	if err := c.Bind(&cp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if cp.ReportedBy == "" {
		cp.ReportedBy = auth.UserIDFromContext(c.Request().Context())
	}
	rec, err := h.svc.AddComplication(c.Request().Context(), id, cp)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) DeclareEmergency(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.DeclareEmergency(c.Request().Context(), id, body.Reason, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, rec)
}
