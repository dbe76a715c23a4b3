package leavehandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeoff/internal/domain/auth"
	"timeoff/internal/domain/leave"
	"timeoff/internal/transport/http/api"
	"timeoff/internal/transport/http/middleware"
	"timeoff/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveAllocate)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/submit", h.handleSubmitRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/refuse", h.handleRefuseRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/allocations", h.handleListAllocations)
		r.With(middleware.RequirePermission(auth.PermLeaveAllocate)).Post("/allocations/mass", h.handleMassAllocate)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/rules", h.handleListRules)
		r.With(middleware.RequirePermission(auth.PermLeaveAllocate)).Post("/rules", h.handleCreateRule)
		r.With(middleware.RequirePermission(auth.PermLeaveAllocate)).Post("/rules/{ruleID}/deactivate", h.handleDeactivateRule)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/reports/allocations/pdf", h.handleAllocationReport)
	})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Validation == "" {
		payload.Validation = leave.ValidationSingle
	}
	if payload.Classification == "" {
		payload.Classification = leave.ClassificationOther
	}

	id, err := h.Service.CreateType(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_create_failed", "failed to create leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	// Employees only see their own requests.
	if user.RoleName == auth.RoleEmployee {
		employeeID = user.EmployeeID
	}

	page := shared.ParsePagination(r, 25, 100)
	requests, err := h.Service.ListRequests(r.Context(), employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_requests_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

type createRequestPayload struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := payload.EmployeeID
	if user.RoleName == auth.RoleEmployee || employeeID == "" {
		employeeID = user.EmployeeID
	}

	dateFrom, err := shared.ParseDate(payload.DateFrom)
	if err != nil || dateFrom.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "dateFrom is required", middleware.GetRequestID(r.Context()))
		return
	}
	dateTo, err := shared.ParseDate(payload.DateTo)
	if err != nil || dateTo.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "dateTo is required", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), employeeID, payload.LeaveTypeID, dateFrom, dateTo)
	if err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if err := h.Service.SubmitLeaveRequest(r.Context(), requestID); err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"state": leave.StateConfirm}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.ApproveLeaveRequest(r.Context(), requestID, user.EmployeeID)
	if err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type refusePayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRefuseRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload refusePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.RefuseLeaveRequest(r.Context(), requestID, user.EmployeeID, payload.Reason)
	if err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if user.RoleName == auth.RoleEmployee || employeeID == "" {
		employeeID = user.EmployeeID
	}

	allocations, err := h.Service.ListAllocations(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "allocations_failed", "failed to list allocations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, allocations, middleware.GetRequestID(r.Context()))
}

type massAllocatePayload struct {
	LeaveTypeID   string   `json:"leaveTypeId"`
	Days          float64  `json:"days"`
	DepartmentIDs []string `json:"departmentIds"`
	AutoRule      bool     `json:"autoRule"`
}

func (h *Handler) handleMassAllocate(w http.ResponseWriter, r *http.Request) {
	var payload massAllocatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	processed, err := h.Service.AllocateMass(r.Context(), payload.LeaveTypeID, payload.Days, payload.DepartmentIDs, payload.AutoRule)
	if err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Success(w, map[string]int{"processed": processed}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Service.ListRules(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rules_failed", "failed to list allocation rules", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rules, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var payload leave.AllocationRule
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.LeaveTypeID == "" || payload.Days <= 0 || len(payload.DepartmentIDs) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_rule", "leaveTypeId, positive days and departmentIds are required", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Active = true

	id, err := h.Service.CreateRule(r.Context(), &payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rule_create_failed", "failed to create allocation rule", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")
	if err := h.Service.DeactivateRule(r.Context(), ruleID); err != nil {
		failLeaveError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"active": false}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAllocationReport(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.Service.AllocationReportPDF(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render allocation report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="allocations.pdf"`)
	_, _ = w.Write(pdf)
}

// failLeaveError maps domain sentinels onto the HTTP envelope. Validation
// and user errors keep their message so the caller sees the verbatim
// constraint; unexpected errors are masked.
func failLeaveError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrCapExceeded):
		api.Fail(w, http.StatusBadRequest, "cap_exceeded", err.Error(), requestID)
	case errors.Is(err, leave.ErrNoCoverage):
		api.Fail(w, http.StatusBadRequest, "no_coverage", err.Error(), requestID)
	case errors.Is(err, leave.ErrPeriodExceeded):
		api.Fail(w, http.StatusBadRequest, "period_exceeded", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, leave.ErrReasonRequired):
		api.Fail(w, http.StatusBadRequest, "reason_required", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidDays):
		api.Fail(w, http.StatusBadRequest, "invalid_days", err.Error(), requestID)
	case errors.Is(err, leave.ErrNoEmployeesFound):
		api.Fail(w, http.StatusNotFound, "no_employees", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "leave_operation_failed", "leave operation failed", requestID)
	}
}
