package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobQuery scopes a job card listing.
type JobQuery struct {
	Company   string
	Statuses  []string
	From      *time.Time
	To        *time.Time
	OrderDesc bool
	Limit     int
}

// AppointmentQuery scopes an appointment listing by schedule window.
// Appointments have no company column, so listings are unscoped.
type AppointmentQuery struct {
	Statuses    []string
	NotStatuses []string
	StartFrom   *time.Time
	StartTo     *time.Time
	Limit       int
}

// InspectionQuery scopes an inspection listing.
type InspectionQuery struct {
	From       *time.Time
	To         *time.Time
	HasJobCard *bool
	Limit      int
}

// InvoiceQuery scopes an invoice listing.
type InvoiceQuery struct {
	Company  string
	Statuses []string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Repository is the read-only query surface behind the aggregator.
// All conditions are parameterized; no SQL is assembled from user input.
type Repository interface {
	CountJobsByStatus(ctx context.Context, company string) ([]StatusCount, error)
	CountJobsInStatuses(ctx context.Context, company string, statuses []string) (int, error)
	ReadyToInvoice(ctx context.Context, company string) (int, float64, error)
	RevenueSince(ctx context.Context, company string, since time.Time) (float64, error)
	DistinctVehiclesSince(ctx context.Context, company string, since time.Time) (int, error)
	DailyRevenue(ctx context.Context, company string, since time.Time) ([]DayRevenue, error)
	DailyJobCounts(ctx context.Context, company string, since time.Time) ([]DayCount, error)
	TopServiceItems(ctx context.Context, company string, limit int) ([]ItemUsage, error)
	TopPartItems(ctx context.Context, company string, limit int) ([]ItemUsage, error)
	ListJobs(ctx context.Context, q JobQuery) ([]JobSummary, error)
	ListAppointments(ctx context.Context, q AppointmentQuery) ([]AppointmentSummary, error)
	ListInspections(ctx context.Context, q InspectionQuery) ([]InspectionSummary, error)
	ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceSummary, error)
	JobCardsByStatusReport(ctx context.Context, f ReportFilters) ([]ReportRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the dashboard query repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CountJobsByStatus(ctx context.Context, company string) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM job_cards
WHERE ($1 = '' OR company = $1)
GROUP BY status`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *repository) CountJobsInStatuses(ctx context.Context, company string, statuses []string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM job_cards
WHERE ($1 = '' OR company = $1) AND status = ANY($2)`, company, statuses).Scan(&count)
	return count, err
}

func (r *repository) ReadyToInvoice(ctx context.Context, company string) (int, float64, error) {
	var count int
	var value float64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT jc.id), COALESCE(SUM(i.amount), 0)
FROM job_cards jc
LEFT JOIN job_card_items i ON i.job_card_id = jc.id
WHERE ($1 = '' OR jc.company = $1) AND jc.status = 'Ready to Invoice' AND jc.sales_invoice_ref IS NULL`,
		company).Scan(&count, &value)
	return count, value, err
}

func (r *repository) RevenueSince(ctx context.Context, company string, since time.Time) (float64, error) {
	var revenue float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(grand_total), 0) FROM sales_invoices
WHERE ($1 = '' OR company = $1)
  AND status NOT IN ('Draft', 'Cancelled')
  AND job_card_ref IS NOT NULL
  AND posting_date >= $2`, company, since).Scan(&revenue)
	return revenue, err
}

func (r *repository) DistinctVehiclesSince(ctx context.Context, company string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT vehicle_id) FROM job_cards
WHERE ($1 = '' OR company = $1) AND vehicle_id IS NOT NULL AND posting_date >= $2`,
		company, since).Scan(&count)
	return count, err
}

func (r *repository) DailyRevenue(ctx context.Context, company string, since time.Time) ([]DayRevenue, error) {
	rows, err := r.pool.Query(ctx, `SELECT posting_date::date, SUM(grand_total), COUNT(id)
FROM sales_invoices
WHERE ($1 = '' OR company = $1)
  AND status NOT IN ('Draft', 'Cancelled')
  AND job_card_ref IS NOT NULL
  AND posting_date >= $2
GROUP BY posting_date::date
ORDER BY posting_date::date`, company, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayRevenue
	for rows.Next() {
		var day time.Time
		var dr DayRevenue
		if err := rows.Scan(&day, &dr.Revenue, &dr.InvoiceCount); err != nil {
			return nil, err
		}
		dr.Date = day.Format("2006-01-02")
		out = append(out, dr)
	}
	return out, rows.Err()
}

func (r *repository) DailyJobCounts(ctx context.Context, company string, since time.Time) ([]DayCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT posting_date::date, COUNT(*)
FROM job_cards
WHERE ($1 = '' OR company = $1) AND posting_date >= $2
GROUP BY posting_date::date
ORDER BY posting_date::date`, company, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayCount
	for rows.Next() {
		var day time.Time
		var dc DayCount
		if err := rows.Scan(&day, &dc.Count); err != nil {
			return nil, err
		}
		dc.Date = day.Format("2006-01-02")
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *repository) TopServiceItems(ctx context.Context, company string, limit int) ([]ItemUsage, error) {
	return r.topItems(ctx, "service", company, limit, "usage_count")
}

func (r *repository) TopPartItems(ctx context.Context, company string, limit int) ([]ItemUsage, error) {
	return r.topItems(ctx, "part", company, limit, "total_qty")
}

func (r *repository) topItems(ctx context.Context, itemType, company string, limit int, orderBy string) ([]ItemUsage, error) {
	if limit <= 0 {
		limit = 5
	}
	// orderBy is one of two internal constants, never caller input.
	query := fmt.Sprintf(`SELECT i.item_code, COUNT(*), SUM(i.qty), SUM(i.amount)
FROM job_card_items i
JOIN job_cards jc ON jc.id = i.job_card_id
WHERE i.item_type = $1 AND ($2 = '' OR jc.company = $2)
GROUP BY i.item_code
ORDER BY %s DESC
LIMIT $3`, map[string]string{"usage_count": "COUNT(*)", "total_qty": "SUM(i.qty)"}[orderBy])
	rows, err := r.pool.Query(ctx, query, itemType, company, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ItemUsage
	for rows.Next() {
		var u ItemUsage
		if err := rows.Scan(&u.ItemCode, &u.UsageCount, &u.TotalQty, &u.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) ListJobs(ctx context.Context, q JobQuery) ([]JobSummary, error) {
	conditions := []string{"($1 = '' OR company = $1)"}
	args := []interface{}{q.Company}
	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		conditions = append(conditions, fmt.Sprintf("posting_date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conditions = append(conditions, fmt.Sprintf("posting_date < $%d", len(args)))
	}
	order := "posting_date"
	if q.OrderDesc {
		order = "updated_at DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, customer_id, COALESCE(vehicle_id, ''), status, posting_date,
COALESCE(service_advisor, ''), updated_at
FROM job_cards WHERE %s ORDER BY %s LIMIT $%d`, andJoin(conditions), order, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JobSummary
	for rows.Next() {
		var j JobSummary
		if err := rows.Scan(&j.ID, &j.Customer, &j.Vehicle, &j.Status, &j.PostingDate,
			&j.ServiceAdvisor, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *repository) ListAppointments(ctx context.Context, q AppointmentQuery) ([]AppointmentSummary, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(q.NotStatuses) > 0 {
		args = append(args, q.NotStatuses)
		conditions = append(conditions, fmt.Sprintf("NOT (status = ANY($%d))", len(args)))
	}
	if q.StartFrom != nil {
		args = append(args, *q.StartFrom)
		conditions = append(conditions, fmt.Sprintf("scheduled_start >= $%d", len(args)))
	}
	if q.StartTo != nil {
		args = append(args, *q.StartTo)
		conditions = append(conditions, fmt.Sprintf("scheduled_start < $%d", len(args)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, customer_id, COALESCE(vehicle_id, ''), scheduled_start, scheduled_end, status
FROM service_appointments WHERE %s ORDER BY scheduled_start LIMIT $%d`, andJoin(conditions), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AppointmentSummary
	for rows.Next() {
		var a AppointmentSummary
		if err := rows.Scan(&a.ID, &a.Customer, &a.Vehicle, &a.ScheduledStart, &a.ScheduledEnd, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) ListInspections(ctx context.Context, q InspectionQuery) ([]InspectionSummary, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if q.From != nil {
		args = append(args, *q.From)
		conditions = append(conditions, fmt.Sprintf("inspection_date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conditions = append(conditions, fmt.Sprintf("inspection_date < $%d", len(args)))
	}
	if q.HasJobCard != nil {
		if *q.HasJobCard {
			conditions = append(conditions, "job_card_id IS NOT NULL")
		} else {
			conditions = append(conditions, "job_card_id IS NULL")
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, COALESCE(customer_id, ''), COALESCE(vehicle_id, ''), COALESCE(job_card_id, ''),
inspection_date, COALESCE(inspector, '')
FROM vehicle_inspections WHERE %s ORDER BY inspection_date DESC LIMIT $%d`, andJoin(conditions), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InspectionSummary
	for rows.Next() {
		var i InspectionSummary
		if err := rows.Scan(&i.ID, &i.Customer, &i.Vehicle, &i.JobCard, &i.InspectionDate, &i.Inspector); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *repository) ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceSummary, error) {
	conditions := []string{"($1 = '' OR company = $1)"}
	args := []interface{}{q.Company}
	if len(q.Statuses) > 0 {
		args = append(args, q.Statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if q.From != nil {
		args = append(args, *q.From)
		conditions = append(conditions, fmt.Sprintf("posting_date >= $%d", len(args)))
	}
	if q.To != nil {
		args = append(args, *q.To)
		conditions = append(conditions, fmt.Sprintf("posting_date < $%d", len(args)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, doc_number, customer_id, posting_date, status, grand_total, COALESCE(job_card_ref, '')
FROM sales_invoices WHERE %s ORDER BY posting_date DESC LIMIT $%d`, andJoin(conditions), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []InvoiceSummary
	for rows.Next() {
		var inv InvoiceSummary
		if err := rows.Scan(&inv.ID, &inv.DocNumber, &inv.Customer, &inv.PostingDate,
			&inv.Status, &inv.GrandTotal, &inv.JobCardRef); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repository) JobCardsByStatusReport(ctx context.Context, f ReportFilters) ([]ReportRow, error) {
	conditions := []string{"($1 = '' OR company = $1)"}
	args := []interface{}{f.Company}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ServiceAdvisor != "" {
		args = append(args, f.ServiceAdvisor)
		conditions = append(conditions, fmt.Sprintf("service_advisor = $%d", len(args)))
	}
	if f.FromDate != nil {
		args = append(args, *f.FromDate)
		conditions = append(conditions, fmt.Sprintf("posting_date >= $%d", len(args)))
	}
	if f.ToDate != nil {
		args = append(args, *f.ToDate)
		conditions = append(conditions, fmt.Sprintf("posting_date <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT id, posting_date, customer_id, COALESCE(vehicle_id, ''), status,
GREATEST(0, (CURRENT_DATE - posting_date::date)), COALESCE(service_advisor, '')
FROM job_cards WHERE %s ORDER BY posting_date DESC`, andJoin(conditions))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.ID, &row.PostingDate, &row.Customer, &row.Vehicle,
			&row.Status, &row.DaysOpen, &row.ServiceAdvisor); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func andJoin(conditions []string) string {
	out := conditions[0]
	for _, c := range conditions[1:] {
		out += " AND " + c
	}
	return out
}
