package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gearbox-erp/gearbox-erp/internal/garage"
)

// Tab identifies one sidebar segment.
type Tab string

const (
	TabJobs         Tab = "jobs"
	TabAppointments Tab = "appointments"
	TabInspections  Tab = "inspections"
	TabSales        Tab = "sales"
)

// ErrUnknownTab indicates a sidebar request for a tab that does not exist.
var ErrUnknownTab = fmt.Errorf("dashboard: unknown tab")

// Service aggregates document state into the dashboard payloads. Failures
// of any sub-aggregate degrade the whole call to a zero-filled shape with
// the cause logged, never partial numbers.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the aggregator.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboardData assembles the full dashboard payload, cache-aware.
func (s *Service) GetDashboardData(ctx context.Context, filters Filters) DashboardData {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.loadDashboard(ctx, filters)
	}

	if s.cache == nil {
		data, err := s.loadDashboard(ctx, filters)
		if err != nil {
			s.logger.Error("dashboard aggregate failed", slog.Any("error", err))
			return zeroDashboard()
		}
		return data
	}

	key, err := s.cache.BuildKey(ctx, "dashboard", "data", filters.Company)
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		key = ""
	}
	var data DashboardData
	if key != "" {
		if err := s.cache.FetchJSON(ctx, key, &data, loader); err == nil {
			return data
		} else {
			s.logger.Error("dashboard aggregate failed", slog.Any("error", err))
			return zeroDashboard()
		}
	}
	loaded, err := s.loadDashboard(ctx, filters)
	if err != nil {
		s.logger.Error("dashboard aggregate failed", slog.Any("error", err))
		return zeroDashboard()
	}
	return loaded
}

func (s *Service) loadDashboard(ctx context.Context, filters Filters) (DashboardData, error) {
	company := filters.Company
	now := s.now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)
	weekAgo := todayStart.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	thirtyDaysAgo := todayStart.AddDate(0, 0, -30)

	var data DashboardData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		kpis, err := s.loadKPIs(gctx, company, todayStart, weekAgo, monthStart)
		if err != nil {
			return err
		}
		data.KPIs = kpis
		return nil
	})
	g.Go(func() error {
		summary, err := s.loadStatusSummary(gctx, company)
		if err != nil {
			return err
		}
		data.JobStatusSummary = summary
		return nil
	})
	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, JobQuery{
			Company:   company,
			Statuses:  []string{string(garage.JobCardClosed)},
			OrderDesc: true,
			Limit:     10,
		})
		data.RecentlyClosedJobs = jobs
		return err
	})
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			NotStatuses: []string{string(garage.AppointmentCancelled)},
			StartFrom:   &todayStart,
			StartTo:     &tomorrow,
			Limit:       20,
		})
		data.TodayAppointments = appts
		return err
	})
	g.Go(func() error {
		pending := false
		inspections, err := s.repo.ListInspections(gctx, InspectionQuery{
			HasJobCard: &pending,
			Limit:      10,
		})
		data.PendingInspections = inspections
		return err
	})
	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, JobQuery{
			Company:  company,
			Statuses: []string{string(garage.JobCardApproved), string(garage.JobCardReadyToInvoice)},
			Limit:    10,
		})
		data.JobsReadyToInvoice = jobs
		return err
	})
	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, JobQuery{
			Company:   company,
			Statuses:  []string{string(garage.JobCardInvoiced), string(garage.JobCardClosed)},
			From:      &todayStart,
			To:        &tomorrow,
			OrderDesc: true,
			Limit:     20,
		})
		data.TodayCompletedTasks = jobs
		return err
	})
	g.Go(func() error {
		chart, err := s.repo.DailyJobCounts(gctx, company, thirtyDaysAgo)
		data.DailyJobsChart = chart
		return err
	})
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			Statuses:  []string{string(garage.AppointmentScheduled), string(garage.AppointmentCheckedIn)},
			StartFrom: &tomorrow,
			Limit:     10,
		})
		data.UpcomingAppointments = appts
		return err
	})
	g.Go(func() error {
		chart, err := s.repo.DailyRevenue(gctx, company, thirtyDaysAgo)
		data.RevenueChart = chart
		return err
	})
	g.Go(func() error {
		top, err := s.repo.TopServiceItems(gctx, company, 5)
		data.TopServices = top
		return err
	})
	g.Go(func() error {
		top, err := s.repo.TopPartItems(gctx, company, 5)
		data.TopParts = top
		return err
	})

	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	normalizeDashboard(&data)
	return data, nil
}

func (s *Service) loadKPIs(ctx context.Context, company string, todayStart, weekAgo, monthStart time.Time) (KPIs, error) {
	var kpis KPIs

	active := make([]string, 0, len(garage.ActiveJobCardStatuses))
	for _, st := range garage.ActiveJobCardStatuses {
		active = append(active, string(st))
	}
	inProgress, err := s.repo.CountJobsInStatuses(ctx, company, active)
	if err != nil {
		return kpis, fmt.Errorf("count active jobs: %w", err)
	}
	kpis.JobsInProgress = inProgress

	readyCount, readyValue, err := s.repo.ReadyToInvoice(ctx, company)
	if err != nil {
		return kpis, fmt.Errorf("ready to invoice: %w", err)
	}
	kpis.ReadyToInvoice = readyCount
	kpis.ReadyToInvoiceValue = readyValue

	todayRevenue, err := s.repo.RevenueSince(ctx, company, todayStart)
	if err != nil {
		return kpis, fmt.Errorf("today revenue: %w", err)
	}
	kpis.TodayRevenue = todayRevenue

	weekRevenue, err := s.repo.RevenueSince(ctx, company, weekAgo)
	if err != nil {
		return kpis, fmt.Errorf("week revenue: %w", err)
	}
	kpis.WeekRevenue = weekRevenue

	monthVehicles, err := s.repo.DistinctVehiclesSince(ctx, company, monthStart)
	if err != nil {
		return kpis, fmt.Errorf("vehicles this month: %w", err)
	}
	kpis.VehiclesServicedMonth = monthVehicles

	weekVehicles, err := s.repo.DistinctVehiclesSince(ctx, company, weekAgo)
	if err != nil {
		return kpis, fmt.Errorf("vehicles this week: %w", err)
	}
	kpis.VehiclesServicedWeek = weekVehicles

	return kpis, nil
}

// loadStatusSummary orders buckets by the fixed status enumeration and
// omits zero counts.
func (s *Service) loadStatusSummary(ctx context.Context, company string) ([]StatusCount, error) {
	raw, err := s.repo.CountJobsByStatus(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("status summary: %w", err)
	}
	counts := make(map[string]int, len(raw))
	for _, sc := range raw {
		counts[sc.Status] = sc.Count
	}
	summary := make([]StatusCount, 0, len(garage.JobCardStatuses))
	for _, status := range garage.JobCardStatuses {
		if n := counts[string(status)]; n > 0 {
			summary = append(summary, StatusCount{Status: string(status), Count: n})
		}
	}
	return summary, nil
}

// GetSidebarData assembles one sidebar tab, degrading to the tab's zero
// shape on failure. An unknown tab is a caller error and is returned.
func (s *Service) GetSidebarData(ctx context.Context, tab Tab, filters SidebarFilters) (interface{}, error) {
	switch tab {
	case TabJobs:
		return s.jobsTab(ctx, filters), nil
	case TabAppointments:
		return s.appointmentsTab(ctx, filters), nil
	case TabInspections:
		return s.inspectionsTab(ctx, filters), nil
	case TabSales:
		return s.salesTab(ctx, filters), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
}

func (s *Service) jobsTab(ctx context.Context, f SidebarFilters) JobsTab {
	var tab JobsTab
	g, gctx := errgroup.WithContext(ctx)

	query := func(statuses []garage.JobCardStatus) JobQuery {
		q := JobQuery{Company: f.Company, From: f.DateFrom, To: f.DateTo, OrderDesc: true, Limit: 50}
		if f.Status != "" {
			q.Statuses = []string{f.Status}
			return q
		}
		for _, st := range statuses {
			q.Statuses = append(q.Statuses, string(st))
		}
		return q
	}

	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, query(garage.ActiveJobCardStatuses))
		tab.Active = jobs
		return err
	})
	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, query([]garage.JobCardStatus{
			garage.JobCardDraft, garage.JobCardEstimated, garage.JobCardApproved, garage.JobCardReadyToInvoice,
		}))
		tab.Pending = jobs
		return err
	})
	g.Go(func() error {
		jobs, err := s.repo.ListJobs(gctx, query([]garage.JobCardStatus{
			garage.JobCardInvoiced, garage.JobCardClosed,
		}))
		tab.Completed = jobs
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("jobs tab aggregate failed", slog.Any("error", err))
		return JobsTab{Active: []JobSummary{}, Pending: []JobSummary{}, Completed: []JobSummary{}}
	}
	if tab.Active == nil {
		tab.Active = []JobSummary{}
	}
	if tab.Pending == nil {
		tab.Pending = []JobSummary{}
	}
	if tab.Completed == nil {
		tab.Completed = []JobSummary{}
	}
	return tab
}

func (s *Service) appointmentsTab(ctx context.Context, f SidebarFilters) AppointmentsTab {
	var tab AppointmentsTab
	now := s.now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)

	from, to := windowOrDefault(f, todayStart, tomorrow)

	var statusFilter []string
	if f.Status != "" {
		statusFilter = []string{f.Status}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			Statuses:    statusFilter,
			NotStatuses: []string{string(garage.AppointmentCancelled)},
			StartFrom:   &from,
			StartTo:     &to,
			Limit:       50,
		})
		tab.Today = appts
		return err
	})
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			Statuses:  statusFilter,
			StartFrom: &tomorrow,
			Limit:     50,
		})
		tab.Upcoming = appts
		return err
	})
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			Statuses: []string{string(garage.AppointmentCheckedIn), string(garage.AppointmentInProgress)},
			Limit:    50,
		})
		tab.CheckedIn = appts
		return err
	})
	g.Go(func() error {
		appts, err := s.repo.ListAppointments(gctx, AppointmentQuery{
			Statuses: []string{string(garage.AppointmentCompleted)},
			Limit:    50,
		})
		tab.Completed = appts
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("appointments tab aggregate failed", slog.Any("error", err))
		return AppointmentsTab{
			Today: []AppointmentSummary{}, Upcoming: []AppointmentSummary{},
			CheckedIn: []AppointmentSummary{}, Completed: []AppointmentSummary{},
		}
	}
	fillApptTab(&tab)
	return tab
}

func (s *Service) inspectionsTab(ctx context.Context, f SidebarFilters) InspectionsTab {
	var tab InspectionsTab
	now := s.now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)
	weekAgo := todayStart.AddDate(0, 0, -7)

	from, to := windowOrDefault(f, todayStart, tomorrow)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inspections, err := s.repo.ListInspections(gctx, InspectionQuery{
			From: &from, To: &to, HasJobCard: f.HasJobCard, Limit: 50,
		})
		tab.Today = inspections
		return err
	})
	g.Go(func() error {
		inspections, err := s.repo.ListInspections(gctx, InspectionQuery{
			From: &weekAgo, HasJobCard: f.HasJobCard, Limit: 50,
		})
		tab.Recent = inspections
		return err
	})
	g.Go(func() error {
		pending := false
		inspections, err := s.repo.ListInspections(gctx, InspectionQuery{
			HasJobCard: &pending, Limit: 50,
		})
		tab.PendingJobCard = inspections
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("inspections tab aggregate failed", slog.Any("error", err))
		return InspectionsTab{
			Today: []InspectionSummary{}, Recent: []InspectionSummary{}, PendingJobCard: []InspectionSummary{},
		}
	}
	if tab.Today == nil {
		tab.Today = []InspectionSummary{}
	}
	if tab.Recent == nil {
		tab.Recent = []InspectionSummary{}
	}
	if tab.PendingJobCard == nil {
		tab.PendingJobCard = []InspectionSummary{}
	}
	return tab
}

func (s *Service) salesTab(ctx context.Context, f SidebarFilters) SalesTab {
	var tab SalesTab
	now := s.now()
	todayStart := startOfDay(now)
	tomorrow := todayStart.AddDate(0, 0, 1)
	weekAgo := todayStart.AddDate(0, 0, -7)

	from, to := windowOrDefault(f, todayStart, tomorrow)

	var statusFilter []string
	if f.Status != "" {
		statusFilter = []string{f.Status}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		invoices, err := s.repo.ListInvoices(gctx, InvoiceQuery{
			Company: f.Company, Statuses: statusFilter, From: &from, To: &to, Limit: 50,
		})
		tab.Today = invoices
		return err
	})
	g.Go(func() error {
		invoices, err := s.repo.ListInvoices(gctx, InvoiceQuery{
			Company: f.Company, Statuses: statusFilter, From: &weekAgo, Limit: 50,
		})
		tab.ThisWeek = invoices
		return err
	})
	g.Go(func() error {
		invoices, err := s.repo.ListInvoices(gctx, InvoiceQuery{
			Company: f.Company, Statuses: []string{"Draft"}, Limit: 50,
		})
		tab.Draft = invoices
		return err
	})
	g.Go(func() error {
		invoices, err := s.repo.ListInvoices(gctx, InvoiceQuery{
			Company: f.Company, Statuses: []string{"Unpaid"}, Limit: 50,
		})
		tab.Unpaid = invoices
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("sales tab aggregate failed", slog.Any("error", err))
		return SalesTab{
			Today: []InvoiceSummary{}, ThisWeek: []InvoiceSummary{},
			Draft: []InvoiceSummary{}, Unpaid: []InvoiceSummary{},
		}
	}
	if tab.Today == nil {
		tab.Today = []InvoiceSummary{}
	}
	if tab.ThisWeek == nil {
		tab.ThisWeek = []InvoiceSummary{}
	}
	if tab.Draft == nil {
		tab.Draft = []InvoiceSummary{}
	}
	if tab.Unpaid == nil {
		tab.Unpaid = []InvoiceSummary{}
	}
	return tab
}

// JobCardsByStatus runs the days-open report. Unlike the dashboard
// aggregates this propagates failures to the caller.
func (s *Service) JobCardsByStatus(ctx context.Context, f ReportFilters) ([]ReportRow, error) {
	rows, err := s.repo.JobCardsByStatusReport(ctx, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ReportRow{}
	}
	return rows, nil
}

func windowOrDefault(f SidebarFilters, defaultFrom, defaultTo time.Time) (time.Time, time.Time) {
	from, to := defaultFrom, defaultTo
	if f.DateFrom != nil {
		from = *f.DateFrom
	}
	if f.DateTo != nil {
		to = *f.DateTo
	}
	return from, to
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func fillApptTab(tab *AppointmentsTab) {
	if tab.Today == nil {
		tab.Today = []AppointmentSummary{}
	}
	if tab.Upcoming == nil {
		tab.Upcoming = []AppointmentSummary{}
	}
	if tab.CheckedIn == nil {
		tab.CheckedIn = []AppointmentSummary{}
	}
	if tab.Completed == nil {
		tab.Completed = []AppointmentSummary{}
	}
}

func normalizeDashboard(data *DashboardData) {
	if data.JobStatusSummary == nil {
		data.JobStatusSummary = []StatusCount{}
	}
	if data.RecentlyClosedJobs == nil {
		data.RecentlyClosedJobs = []JobSummary{}
	}
	if data.TodayAppointments == nil {
		data.TodayAppointments = []AppointmentSummary{}
	}
	if data.PendingInspections == nil {
		data.PendingInspections = []InspectionSummary{}
	}
	if data.JobsReadyToInvoice == nil {
		data.JobsReadyToInvoice = []JobSummary{}
	}
	if data.TodayCompletedTasks == nil {
		data.TodayCompletedTasks = []JobSummary{}
	}
	if data.DailyJobsChart == nil {
		data.DailyJobsChart = []DayCount{}
	}
	if data.UpcomingAppointments == nil {
		data.UpcomingAppointments = []AppointmentSummary{}
	}
	if data.RevenueChart == nil {
		data.RevenueChart = []DayRevenue{}
	}
	if data.TopServices == nil {
		data.TopServices = []ItemUsage{}
	}
	if data.TopParts == nil {
		data.TopParts = []ItemUsage{}
	}
}

func zeroDashboard() DashboardData {
	var data DashboardData
	normalizeDashboard(&data)
	return data
}
