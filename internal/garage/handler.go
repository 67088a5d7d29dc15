package garage

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gearbox-erp/gearbox-erp/internal/platform/httpx"
)

// Handler exposes the document pipeline and billing actions over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	billing  *BillingService
	validate *validator.Validate
}

// NewHandler constructs the garage HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, billing *BillingService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		billing:  billing,
		validate: validator.New(),
	}
}

// Routes mounts the workshop document endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.SaveVehicle)
		r.Get("/{id}", h.GetVehicle)
		r.Put("/{id}", h.SaveVehicle)
		r.Delete("/{id}", h.DeleteVehicle)
	})
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.SaveAppointment)
		r.Get("/{id}", h.GetAppointment)
		r.Put("/{id}", h.SaveAppointment)
		r.Delete("/{id}", h.DeleteAppointment)
	})
	r.Route("/job-cards", func(r chi.Router) {
		r.Post("/", h.SaveJobCard)
		r.Get("/{id}", h.GetJobCard)
		r.Put("/{id}", h.SaveJobCard)
		r.Delete("/{id}", h.DeleteJobCard)
		r.Post("/{id}/quotation", h.CreateQuotation)
		r.Post("/{id}/invoice", h.CreateSalesInvoice)
	})
	r.Route("/inspections", func(r chi.Router) {
		r.Post("/", h.SaveInspection)
		r.Get("/{id}", h.GetInspection)
		r.Put("/{id}", h.SaveInspection)
		r.Delete("/{id}", h.DeleteInspection)
	})
}

type vehicleRequest struct {
	Customer     string `json:"customer" validate:"required"`
	LicensePlate string `json:"license_plate,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (h *Handler) SaveVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc := &Vehicle{
		ID:           chi.URLParam(r, "id"),
		Customer:     req.Customer,
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
	}
	saved, err := h.service.SaveVehicle(r.Context(), doc)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetVehicle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type appointmentRequest struct {
	Customer       string    `json:"customer" validate:"required"`
	Vehicle        string    `json:"vehicle,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required"`
	Status         string    `json:"status,omitempty"`
	ServiceAdvisor string    `json:"service_advisor,omitempty"`
}

func (h *Handler) SaveAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc := &Appointment{
		ID:             chi.URLParam(r, "id"),
		Customer:       req.Customer,
		Vehicle:        req.Vehicle,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
		Status:         AppointmentStatus(req.Status),
		ServiceAdvisor: req.ServiceAdvisor,
	}
	saved, err := h.service.SaveAppointment(r.Context(), doc)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAppointment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	ItemCode  string  `json:"item_code" validate:"required"`
	Qty       float64 `json:"qty" validate:"gte=0"`
	Rate      float64 `json:"rate" validate:"gte=0"`
	Warehouse string  `json:"warehouse,omitempty"`
}

type jobCardRequest struct {
	Appointment    string        `json:"appointment,omitempty"`
	Customer       string        `json:"customer,omitempty"`
	Vehicle        string        `json:"vehicle,omitempty"`
	ServiceAdvisor string        `json:"service_advisor,omitempty"`
	Company        string        `json:"company,omitempty"`
	PostingDate    *time.Time    `json:"posting_date,omitempty"`
	Warehouse      string        `json:"warehouse,omitempty"`
	Status         string        `json:"status,omitempty"`
	ServiceItems   []itemRequest `json:"service_items,omitempty" validate:"dive"`
	PartItems      []itemRequest `json:"part_items,omitempty" validate:"dive"`
}

func (h *Handler) SaveJobCard(w http.ResponseWriter, r *http.Request) {
	var req jobCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc := &JobCard{
		ID:             chi.URLParam(r, "id"),
		Appointment:    req.Appointment,
		Customer:       req.Customer,
		Vehicle:        req.Vehicle,
		ServiceAdvisor: req.ServiceAdvisor,
		Company:        req.Company,
		Warehouse:      req.Warehouse,
		Status:         JobCardStatus(req.Status),
	}
	if req.PostingDate != nil {
		doc.PostingDate = *req.PostingDate
	}
	for _, item := range req.ServiceItems {
		doc.ServiceItems = append(doc.ServiceItems, JobCardItem{
			ItemCode: item.ItemCode, Qty: item.Qty, Rate: item.Rate,
		})
	}
	for _, item := range req.PartItems {
		doc.PartItems = append(doc.PartItems, JobCardItem{
			ItemCode: item.ItemCode, Qty: item.Qty, Rate: item.Rate, Warehouse: item.Warehouse,
		})
	}
	saved, err := h.service.SaveJobCard(r.Context(), doc)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) GetJobCard(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetJobCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteJobCard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteJobCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inspectionRequest struct {
	JobCard        string     `json:"job_card,omitempty"`
	Appointment    string     `json:"appointment,omitempty"`
	Customer       string     `json:"customer,omitempty"`
	Vehicle        string     `json:"vehicle,omitempty"`
	InspectionDate *time.Time `json:"inspection_date,omitempty"`
	Inspector      string     `json:"inspector,omitempty"`
	Remarks        string     `json:"remarks,omitempty"`
}

func (h *Handler) SaveInspection(w http.ResponseWriter, r *http.Request) {
	var req inspectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc := &Inspection{
		ID:          chi.URLParam(r, "id"),
		JobCard:     req.JobCard,
		Appointment: req.Appointment,
		Customer:    req.Customer,
		Vehicle:     req.Vehicle,
		Inspector:   req.Inspector,
		Remarks:     req.Remarks,
	}
	if req.InspectionDate != nil {
		doc.InspectionDate = *req.InspectionDate
	}
	saved, err := h.service.SaveInspection(r.Context(), doc)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) GetInspection(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetInspection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteInspection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInspection(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := h.billing.CreateQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"quotation": id})
}

func (h *Handler) CreateSalesInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := h.billing.CreateSalesInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"sales_invoice": id})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return false
	}
	return true
}

// respondError maps the domain error taxonomy onto problem details.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var stockErr *InsufficientStockError
	var creationErr *CreationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &stockErr):
		httpx.ProblemWith(w, http.StatusConflict, "Stock Not Available",
			"insufficient stock for one or more part items", stockErr.Shortfalls)
	case errors.Is(err, ErrUniqueness), errors.Is(err, ErrDuplicate), errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrReference), errors.Is(err, ErrRange),
		errors.Is(err, ErrConsistency), errors.Is(err, ErrEmptyOrder):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.As(err, &creationErr):
		httpx.Problem(w, http.StatusInternalServerError, "Creation Failed", creationErr.Error())
	default:
		h.logger.Error("unhandled error", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
