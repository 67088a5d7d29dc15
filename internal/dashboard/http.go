package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gearbox-erp/gearbox-erp/internal/platform/httpx"
)

// Handler serves the dashboard aggregates over JSON.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the dashboard endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/dashboard/sidebar", h.GetSidebar)
	r.Get("/reports/job-cards-by-status", h.GetJobCardsByStatus)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data := h.service.GetDashboardData(r.Context(), Filters{
		Company: r.URL.Query().Get("company"),
	})
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) GetSidebar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := SidebarFilters{
		Company:  q.Get("company"),
		Status:   q.Get("status"),
		DateFrom: parseDate(q.Get("date_from")),
		DateTo:   parseDate(q.Get("date_to")),
	}
	if v := q.Get("has_jobcard"); v != "" {
		has := v == "true" || v == "1"
		filters.HasJobCard = &has
	}
	data, err := h.service.GetSidebarData(r.Context(), Tab(q.Get("tab")), filters)
	if err != nil {
		if errors.Is(err, ErrUnknownTab) {
			httpx.Problem(w, http.StatusBadRequest, "Unknown Tab", err.Error())
			return
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) GetJobCardsByStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.service.JobCardsByStatus(r.Context(), ReportFilters{
		Company:        q.Get("company"),
		Status:         q.Get("status"),
		ServiceAdvisor: q.Get("service_advisor"),
		FromDate:       parseDate(q.Get("from_date")),
		ToDate:         parseDate(q.Get("to_date")),
	})
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
