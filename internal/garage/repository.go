package garage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearbox-erp/gearbox-erp/internal/platform/db"
)

// Repository persists workshop documents in PostgreSQL and implements
// Store. Documents live in parent tables with job card lines in a child
// table, service lines before part lines in declared order.
type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// NewRepository constructs the document repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to one repeatable-read
// transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	if r.pool == nil {
		// Already inside a transaction; reuse it.
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{db: tx})
	})
}

func (r *Repository) CustomerExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	var v Vehicle
	err := r.db.QueryRow(ctx, `SELECT id, customer_id, COALESCE(license_plate, ''), make, model, created_at, updated_at
FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.Customer, &v.LicensePlate, &v.Make, &v.Model, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *Repository) VehicleByPlate(ctx context.Context, plate, excludeID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM vehicles WHERE license_plate = $1 AND id <> $2 LIMIT 1`,
		plate, excludeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (r *Repository) InsertVehicle(ctx context.Context, v *Vehicle) error {
	err := r.db.QueryRow(ctx, `INSERT INTO vehicles (id, customer_id, license_plate, make, model, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NOW(), NOW())
RETURNING created_at, updated_at`,
		v.ID, v.Customer, v.LicensePlate, v.Make, v.Model).Scan(&v.CreatedAt, &v.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *Repository) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	tag, err := r.db.Exec(ctx, `UPDATE vehicles
SET customer_id = $2, license_plate = NULLIF($3, ''), make = $4, model = $5, updated_at = NOW()
WHERE id = $1`,
		v.ID, v.Customer, v.LicensePlate, v.Make, v.Model)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteVehicle(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const appointmentColumns = `id, customer_id, COALESCE(vehicle_id, ''), scheduled_start, scheduled_end, status,
COALESCE(service_advisor, ''), COALESCE(job_card_ref, ''), COALESCE(inspection_ref, ''), created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Customer, &a.Vehicle, &a.ScheduledStart, &a.ScheduledEnd, &a.Status,
		&a.ServiceAdvisor, &a.JobCardRef, &a.InspectionRef, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM service_appointments WHERE id = $1`, id))
}

func (r *Repository) InsertAppointment(ctx context.Context, a *Appointment) error {
	return r.db.QueryRow(ctx, `INSERT INTO service_appointments
(id, customer_id, vehicle_id, scheduled_start, scheduled_end, status, service_advisor, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NOW(), NOW())
RETURNING created_at, updated_at`,
		a.ID, a.Customer, a.Vehicle, a.ScheduledStart, a.ScheduledEnd, a.Status, a.ServiceAdvisor).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *Repository) UpdateAppointment(ctx context.Context, a *Appointment) error {
	tag, err := r.db.Exec(ctx, `UPDATE service_appointments
SET customer_id = $2, vehicle_id = NULLIF($3, ''), scheduled_start = $4, scheduled_end = $5,
    status = $6, service_advisor = NULLIF($7, ''), updated_at = NOW()
WHERE id = $1`,
		a.ID, a.Customer, a.Vehicle, a.ScheduledStart, a.ScheduledEnd, a.Status, a.ServiceAdvisor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PatchAppointment is the system write path for back-link fields. It does
// not bump updated_at and never re-enters validation.
func (r *Repository) PatchAppointment(ctx context.Context, id string, patch AppointmentPatch) error {
	sets := make([]string, 0, 3)
	args := []interface{}{id}
	if patch.JobCardRef != nil {
		args = append(args, *patch.JobCardRef)
		sets = append(sets, fmt.Sprintf("job_card_ref = NULLIF($%d, '')", len(args)))
	}
	if patch.InspectionRef != nil {
		args = append(args, *patch.InspectionRef)
		sets = append(sets, fmt.Sprintf("inspection_ref = NULLIF($%d, '')", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE service_appointments SET " + joinSets(sets) + " WHERE id = $1"
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetJobCard(ctx context.Context, id string) (*JobCard, error) {
	var jc JobCard
	err := r.db.QueryRow(ctx, `SELECT id, COALESCE(appointment_id, ''), customer_id, COALESCE(vehicle_id, ''),
COALESCE(service_advisor, ''), COALESCE(company, ''), posting_date, COALESCE(warehouse, ''), status,
COALESCE(quotation_ref, ''), COALESCE(sales_invoice_ref, ''), created_at, updated_at
FROM job_cards WHERE id = $1`, id).
		Scan(&jc.ID, &jc.Appointment, &jc.Customer, &jc.Vehicle, &jc.ServiceAdvisor, &jc.Company,
			&jc.PostingDate, &jc.Warehouse, &jc.Status, &jc.QuotationRef, &jc.SalesInvoiceRef,
			&jc.CreatedAt, &jc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT item_type, item_code, qty, rate, amount, COALESCE(warehouse, '')
FROM job_card_items WHERE job_card_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var itemType string
		var item JobCardItem
		if err := rows.Scan(&itemType, &item.ItemCode, &item.Qty, &item.Rate, &item.Amount, &item.Warehouse); err != nil {
			return nil, err
		}
		if itemType == "part" {
			jc.PartItems = append(jc.PartItems, item)
		} else {
			jc.ServiceItems = append(jc.ServiceItems, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &jc, nil
}

func (r *Repository) InsertJobCard(ctx context.Context, jc *JobCard) error {
	err := r.db.QueryRow(ctx, `INSERT INTO job_cards
(id, appointment_id, customer_id, vehicle_id, service_advisor, company, posting_date, warehouse, status,
 quotation_ref, sales_invoice_ref, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), $9,
        NULLIF($10, ''), NULLIF($11, ''), NOW(), NOW())
RETURNING created_at, updated_at`,
		jc.ID, jc.Appointment, jc.Customer, jc.Vehicle, jc.ServiceAdvisor, jc.Company,
		jc.PostingDate, jc.Warehouse, jc.Status, jc.QuotationRef, jc.SalesInvoiceRef).
		Scan(&jc.CreatedAt, &jc.UpdatedAt)
	if err != nil {
		return err
	}
	return r.replaceItems(ctx, jc)
}

func (r *Repository) UpdateJobCard(ctx context.Context, jc *JobCard) error {
	tag, err := r.db.Exec(ctx, `UPDATE job_cards
SET appointment_id = NULLIF($2, ''), customer_id = $3, vehicle_id = NULLIF($4, ''),
    service_advisor = NULLIF($5, ''), company = NULLIF($6, ''), posting_date = $7,
    warehouse = NULLIF($8, ''), status = $9, quotation_ref = NULLIF($10, ''),
    sales_invoice_ref = NULLIF($11, ''), updated_at = NOW()
WHERE id = $1`,
		jc.ID, jc.Appointment, jc.Customer, jc.Vehicle, jc.ServiceAdvisor, jc.Company,
		jc.PostingDate, jc.Warehouse, jc.Status, jc.QuotationRef, jc.SalesInvoiceRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.replaceItems(ctx, jc)
}

func (r *Repository) replaceItems(ctx context.Context, jc *JobCard) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM job_card_items WHERE job_card_id = $1`, jc.ID); err != nil {
		return err
	}
	order := 0
	insert := func(itemType string, items []JobCardItem) error {
		for _, item := range items {
			order++
			if _, err := r.db.Exec(ctx, `INSERT INTO job_card_items
(job_card_id, item_type, item_code, qty, rate, amount, warehouse, line_order)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
				jc.ID, itemType, item.ItemCode, item.Qty, item.Rate, item.Amount, item.Warehouse, order); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert("service", jc.ServiceItems); err != nil {
		return err
	}
	return insert("part", jc.PartItems)
}

func (r *Repository) DeleteJobCard(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM job_card_items WHERE job_card_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM job_cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PatchJobCard is the post-invoice system write. No updated_at bump.
func (r *Repository) PatchJobCard(ctx context.Context, id string, patch JobCardPatch) error {
	sets := make([]string, 0, 3)
	args := []interface{}{id}
	if patch.SalesInvoiceRef != nil {
		args = append(args, *patch.SalesInvoiceRef)
		sets = append(sets, fmt.Sprintf("sales_invoice_ref = NULLIF($%d, '')", len(args)))
	}
	if patch.QuotationRef != nil {
		args = append(args, *patch.QuotationRef)
		sets = append(sets, fmt.Sprintf("quotation_ref = NULLIF($%d, '')", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE job_cards SET " + joinSets(sets) + " WHERE id = $1"
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetInspection(ctx context.Context, id string) (*Inspection, error) {
	var ins Inspection
	err := r.db.QueryRow(ctx, `SELECT id, COALESCE(job_card_id, ''), COALESCE(appointment_id, ''),
COALESCE(customer_id, ''), COALESCE(vehicle_id, ''), inspection_date, COALESCE(inspector, ''),
COALESCE(remarks, ''), created_at, updated_at
FROM vehicle_inspections WHERE id = $1`, id).
		Scan(&ins.ID, &ins.JobCard, &ins.Appointment, &ins.Customer, &ins.Vehicle,
			&ins.InspectionDate, &ins.Inspector, &ins.Remarks, &ins.CreatedAt, &ins.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ins, nil
}

func (r *Repository) InsertInspection(ctx context.Context, ins *Inspection) error {
	return r.db.QueryRow(ctx, `INSERT INTO vehicle_inspections
(id, job_card_id, appointment_id, customer_id, vehicle_id, inspection_date, inspector, remarks, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), NOW(), NOW())
RETURNING created_at, updated_at`,
		ins.ID, ins.JobCard, ins.Appointment, ins.Customer, ins.Vehicle,
		ins.InspectionDate, ins.Inspector, ins.Remarks).
		Scan(&ins.CreatedAt, &ins.UpdatedAt)
}

func (r *Repository) UpdateInspection(ctx context.Context, ins *Inspection) error {
	tag, err := r.db.Exec(ctx, `UPDATE vehicle_inspections
SET job_card_id = NULLIF($2, ''), appointment_id = NULLIF($3, ''), customer_id = NULLIF($4, ''),
    vehicle_id = NULLIF($5, ''), inspection_date = $6, inspector = NULLIF($7, ''),
    remarks = NULLIF($8, ''), updated_at = NOW()
WHERE id = $1`,
		ins.ID, ins.JobCard, ins.Appointment, ins.Customer, ins.Vehicle,
		ins.InspectionDate, ins.Inspector, ins.Remarks)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteInspection(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicle_inspections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrUniqueness, pgErr.ConstraintName)
	}
	return err
}
