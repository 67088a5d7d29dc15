package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRepo serves canned aggregates; individual methods can be failed to
// exercise degradation.
type fakeRepo struct {
	statusCounts []StatusCount
	inStatuses   int
	readyCount   int
	readyValue   float64
	revenue      float64
	vehicles     int
	jobs         []JobSummary
	appts        []AppointmentSummary
	inspections  []InspectionSummary
	invoices     []InvoiceSummary
	reportRows   []ReportRow

	failRevenue bool
	failReport  bool

	mu                  sync.Mutex
	lastJobQuery        *JobQuery
	lastInspectionQuery *InspectionQuery
	inspectionQueries   []InspectionQuery
}

func (f *fakeRepo) CountJobsByStatus(ctx context.Context, company string) ([]StatusCount, error) {
	return f.statusCounts, nil
}

func (f *fakeRepo) CountJobsInStatuses(ctx context.Context, company string, statuses []string) (int, error) {
	return f.inStatuses, nil
}

func (f *fakeRepo) ReadyToInvoice(ctx context.Context, company string) (int, float64, error) {
	return f.readyCount, f.readyValue, nil
}

func (f *fakeRepo) RevenueSince(ctx context.Context, company string, since time.Time) (float64, error) {
	if f.failRevenue {
		return 0, errors.New("revenue query timeout")
	}
	return f.revenue, nil
}

func (f *fakeRepo) DistinctVehiclesSince(ctx context.Context, company string, since time.Time) (int, error) {
	return f.vehicles, nil
}

func (f *fakeRepo) DailyRevenue(ctx context.Context, company string, since time.Time) ([]DayRevenue, error) {
	return nil, nil
}

func (f *fakeRepo) DailyJobCounts(ctx context.Context, company string, since time.Time) ([]DayCount, error) {
	return nil, nil
}

func (f *fakeRepo) TopServiceItems(ctx context.Context, company string, limit int) ([]ItemUsage, error) {
	return nil, nil
}

func (f *fakeRepo) TopPartItems(ctx context.Context, company string, limit int) ([]ItemUsage, error) {
	return nil, nil
}

func (f *fakeRepo) ListJobs(ctx context.Context, q JobQuery) ([]JobSummary, error) {
	f.mu.Lock()
	f.lastJobQuery = &q
	f.mu.Unlock()
	return f.jobs, nil
}

func (f *fakeRepo) ListAppointments(ctx context.Context, q AppointmentQuery) ([]AppointmentSummary, error) {
	return f.appts, nil
}

func (f *fakeRepo) ListInspections(ctx context.Context, q InspectionQuery) ([]InspectionSummary, error) {
	f.mu.Lock()
	f.lastInspectionQuery = &q
	f.inspectionQueries = append(f.inspectionQueries, q)
	f.mu.Unlock()
	return f.inspections, nil
}

func (f *fakeRepo) ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceSummary, error) {
	return f.invoices, nil
}

func (f *fakeRepo) JobCardsByStatusReport(ctx context.Context, rf ReportFilters) ([]ReportRow, error) {
	if f.failReport {
		return nil, errors.New("report query failed")
	}
	return f.reportRows, nil
}

func dashboardFixture(repo Repository) *Service {
	svc := NewService(repo, nil, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestGetDashboardDataAssemblesKPIs(t *testing.T) {
	repo := &fakeRepo{
		inStatuses: 4,
		readyCount: 2,
		readyValue: 1250.5,
		revenue:    980,
		vehicles:   7,
		statusCounts: []StatusCount{
			{Status: "In Progress", Count: 3},
			{Status: "Draft", Count: 1},
		},
	}
	svc := dashboardFixture(repo)

	data := svc.GetDashboardData(context.Background(), Filters{})
	require.Equal(t, 4, data.KPIs.JobsInProgress)
	require.Equal(t, 2, data.KPIs.ReadyToInvoice)
	require.InDelta(t, 1250.5, data.KPIs.ReadyToInvoiceValue, 0.0001)
	require.InDelta(t, 980.0, data.KPIs.TodayRevenue, 0.0001)
	require.Equal(t, 7, data.KPIs.VehiclesServicedMonth)
}

func TestGetDashboardDataStatusSummaryOrdered(t *testing.T) {
	repo := &fakeRepo{
		statusCounts: []StatusCount{
			{Status: "In Progress", Count: 3},
			{Status: "Draft", Count: 1},
			{Status: "Closed", Count: 0},
		},
	}
	svc := dashboardFixture(repo)

	data := svc.GetDashboardData(context.Background(), Filters{})
	// Lifecycle order, zero counts dropped.
	require.Equal(t, []StatusCount{
		{Status: "Draft", Count: 1},
		{Status: "In Progress", Count: 3},
	}, data.JobStatusSummary)
}

func TestGetDashboardDataDegradesToZeroShape(t *testing.T) {
	repo := &fakeRepo{
		inStatuses:  4,
		readyCount:  2,
		failRevenue: true,
	}
	svc := dashboardFixture(repo)

	data := svc.GetDashboardData(context.Background(), Filters{})
	// A single failed sub-aggregate zeroes the whole payload, including
	// the sub-aggregates that succeeded.
	require.Zero(t, data.KPIs.JobsInProgress)
	require.Zero(t, data.KPIs.ReadyToInvoice)
	require.NotNil(t, data.JobStatusSummary)
	require.Empty(t, data.JobStatusSummary)
	require.NotNil(t, data.RevenueChart)
	require.NotNil(t, data.TopServices)
}

func TestGetSidebarDataUnknownTab(t *testing.T) {
	svc := dashboardFixture(&fakeRepo{})

	_, err := svc.GetSidebarData(context.Background(), Tab("payroll"), SidebarFilters{})
	require.ErrorIs(t, err, ErrUnknownTab)
}

func TestGetSidebarDataJobsTab(t *testing.T) {
	repo := &fakeRepo{jobs: []JobSummary{{ID: "JC-1", Status: "In Progress"}}}
	svc := dashboardFixture(repo)

	data, err := svc.GetSidebarData(context.Background(), TabJobs, SidebarFilters{})
	require.NoError(t, err)
	tab, ok := data.(JobsTab)
	require.True(t, ok)
	require.Len(t, tab.Active, 1)
	require.NotNil(t, tab.Pending)
	require.NotNil(t, tab.Completed)
}

func TestGetSidebarDataJobsTabStatusFilterOverridesGroups(t *testing.T) {
	repo := &fakeRepo{}
	svc := dashboardFixture(repo)

	_, err := svc.GetSidebarData(context.Background(), TabJobs, SidebarFilters{Status: "Estimated"})
	require.NoError(t, err)
	require.NotNil(t, repo.lastJobQuery)
	require.Equal(t, []string{"Estimated"}, repo.lastJobQuery.Statuses)
}

func TestGetSidebarDataInspectionsHasJobCardFilter(t *testing.T) {
	repo := &fakeRepo{}
	svc := dashboardFixture(repo)

	has := false
	_, err := svc.GetSidebarData(context.Background(), TabInspections, SidebarFilters{HasJobCard: &has})
	require.NoError(t, err)
	require.NotNil(t, repo.lastInspectionQuery)
}

func TestGetSidebarDataSalesTabShape(t *testing.T) {
	repo := &fakeRepo{invoices: []InvoiceSummary{{ID: "SI-1", Status: "Unpaid", GrandTotal: 340}}}
	svc := dashboardFixture(repo)

	data, err := svc.GetSidebarData(context.Background(), TabSales, SidebarFilters{})
	require.NoError(t, err)
	tab, ok := data.(SalesTab)
	require.True(t, ok)
	require.NotEmpty(t, tab.Today)
	require.NotEmpty(t, tab.Unpaid)
}

func TestJobCardsByStatusPropagatesErrors(t *testing.T) {
	repo := &fakeRepo{failReport: true}
	svc := dashboardFixture(repo)

	_, err := svc.JobCardsByStatus(context.Background(), ReportFilters{})
	require.Error(t, err)
}

func TestJobCardsByStatusEmptyIsNotNil(t *testing.T) {
	svc := dashboardFixture(&fakeRepo{})

	rows, err := svc.JobCardsByStatus(context.Background(), ReportFilters{})
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}
