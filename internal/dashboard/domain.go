// Package dashboard is the read side of the workshop: KPI snapshots,
// status histograms, time series and tab-scoped listings aggregated from
// the same store the document pipeline writes to. Everything here is
// best-effort: a failed aggregate degrades to a zero-filled shape, never
// to partial numbers.
package dashboard

import "time"

// Filters scopes the main dashboard payload.
type Filters struct {
	Company string `json:"company,omitempty"`
}

// SidebarFilters scopes one sidebar tab.
type SidebarFilters struct {
	Company    string     `json:"company,omitempty"`
	Status     string     `json:"status,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	HasJobCard *bool      `json:"has_jobcard,omitempty"`
}

// KPIs is the headline snapshot.
type KPIs struct {
	JobsInProgress        int     `json:"jobs_in_progress"`
	ReadyToInvoice        int     `json:"ready_to_invoice"`
	ReadyToInvoiceValue   float64 `json:"ready_to_invoice_value"`
	TodayRevenue          float64 `json:"today_revenue"`
	WeekRevenue           float64 `json:"week_revenue"`
	VehiclesServicedMonth int     `json:"vehicles_serviced_month"`
	VehiclesServicedWeek  int     `json:"vehicles_serviced_week"`
}

// StatusCount is one bucket of the job status histogram. Zero-count
// statuses are omitted.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// JobSummary is a job card row in a dashboard listing.
type JobSummary struct {
	ID             string    `json:"id"`
	Customer       string    `json:"customer"`
	Vehicle        string    `json:"vehicle,omitempty"`
	Status         string    `json:"status"`
	PostingDate    time.Time `json:"posting_date"`
	ServiceAdvisor string    `json:"service_advisor,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AppointmentSummary is an appointment row in a dashboard listing.
type AppointmentSummary struct {
	ID             string    `json:"id"`
	Customer       string    `json:"customer"`
	Vehicle        string    `json:"vehicle,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         string    `json:"status"`
}

// InspectionSummary is an inspection row in a dashboard listing.
type InspectionSummary struct {
	ID             string    `json:"id"`
	Customer       string    `json:"customer,omitempty"`
	Vehicle        string    `json:"vehicle,omitempty"`
	JobCard        string    `json:"job_card,omitempty"`
	InspectionDate time.Time `json:"inspection_date"`
	Inspector      string    `json:"inspector,omitempty"`
}

// InvoiceSummary is a sales invoice row in a dashboard listing.
type InvoiceSummary struct {
	ID          string    `json:"id"`
	DocNumber   string    `json:"doc_number"`
	Customer    string    `json:"customer"`
	PostingDate time.Time `json:"posting_date"`
	Status      string    `json:"status"`
	GrandTotal  float64   `json:"grand_total"`
	JobCardRef  string    `json:"job_card_ref,omitempty"`
}

// DayRevenue is one day of invoiced revenue.
type DayRevenue struct {
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	InvoiceCount int     `json:"invoice_count"`
}

// DayCount is one day of job creations.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ItemUsage ranks an item code by how often and how much it is used.
type ItemUsage struct {
	ItemCode    string  `json:"item_code"`
	UsageCount  int     `json:"usage_count"`
	TotalQty    float64 `json:"total_qty"`
	TotalAmount float64 `json:"total_amount"`
}

// DashboardData is the full payload behind the garage dashboard page.
type DashboardData struct {
	KPIs                 KPIs                 `json:"kpis"`
	JobStatusSummary     []StatusCount        `json:"job_status_summary"`
	RecentlyClosedJobs   []JobSummary         `json:"recently_closed_jobs"`
	TodayAppointments    []AppointmentSummary `json:"today_appointments"`
	PendingInspections   []InspectionSummary  `json:"pending_inspections"`
	JobsReadyToInvoice   []JobSummary         `json:"jobs_ready_to_invoice"`
	TodayCompletedTasks  []JobSummary         `json:"today_completed_tasks"`
	DailyJobsChart       []DayCount           `json:"daily_jobs_chart"`
	UpcomingAppointments []AppointmentSummary `json:"upcoming_appointments"`
	RevenueChart         []DayRevenue         `json:"revenue_chart"`
	TopServices          []ItemUsage          `json:"top_services"`
	TopParts             []ItemUsage          `json:"top_parts"`
}

// JobsTab groups job cards by status family.
type JobsTab struct {
	Active    []JobSummary `json:"active"`
	Pending   []JobSummary `json:"pending"`
	Completed []JobSummary `json:"completed"`
}

// AppointmentsTab groups appointments by schedule window.
type AppointmentsTab struct {
	Today     []AppointmentSummary `json:"today"`
	Upcoming  []AppointmentSummary `json:"upcoming"`
	CheckedIn []AppointmentSummary `json:"checked_in"`
	Completed []AppointmentSummary `json:"completed"`
}

// InspectionsTab groups inspections by recency and job card linkage.
type InspectionsTab struct {
	Today          []InspectionSummary `json:"today"`
	Recent         []InspectionSummary `json:"recent"`
	PendingJobCard []InspectionSummary `json:"pending_job_card"`
}

// SalesTab groups invoices by window and settlement state.
type SalesTab struct {
	Today    []InvoiceSummary `json:"today"`
	ThisWeek []InvoiceSummary `json:"this_week"`
	Draft    []InvoiceSummary `json:"draft"`
	Unpaid   []InvoiceSummary `json:"unpaid"`
}

// ReportRow is one line of the job-cards-by-status report.
type ReportRow struct {
	ID             string    `json:"id"`
	PostingDate    time.Time `json:"posting_date"`
	Customer       string    `json:"customer"`
	Vehicle        string    `json:"vehicle,omitempty"`
	Status         string    `json:"status"`
	DaysOpen       int       `json:"days_open"`
	ServiceAdvisor string    `json:"service_advisor,omitempty"`
}

// ReportFilters scopes the job-cards-by-status report.
type ReportFilters struct {
	Company        string     `json:"company,omitempty"`
	Status         string     `json:"status,omitempty"`
	ServiceAdvisor string     `json:"service_advisor,omitempty"`
	FromDate       *time.Time `json:"from_date,omitempty"`
	ToDate         *time.Time `json:"to_date,omitempty"`
}
