package garage

import "context"

// AppointmentPatch is an out-of-band write against an appointment's
// back-link fields. Non-nil fields are written; an empty string clears the
// link. Patches bypass the validate/save pipeline and must not touch the
// document's updated_at timestamp.
type AppointmentPatch struct {
	JobCardRef    *string
	InspectionRef *string
	Status        *AppointmentStatus
}

// JobCardPatch is the post-invoice system write against a job card.
type JobCardPatch struct {
	SalesInvoiceRef *string
	QuotationRef    *string
	Status          *JobCardStatus
}

// Store is the document store handle passed explicitly to every validator,
// synchronizer and workflow operation. The user-save methods participate in
// the full lifecycle; the Patch methods are system writes with no hook
// re-entry and no timestamp churn.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error

	CustomerExists(ctx context.Context, id string) (bool, error)

	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	VehicleByPlate(ctx context.Context, plate, excludeID string) (string, error)
	InsertVehicle(ctx context.Context, v *Vehicle) error
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error

	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	InsertAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	PatchAppointment(ctx context.Context, id string, patch AppointmentPatch) error

	GetJobCard(ctx context.Context, id string) (*JobCard, error)
	InsertJobCard(ctx context.Context, jc *JobCard) error
	UpdateJobCard(ctx context.Context, jc *JobCard) error
	DeleteJobCard(ctx context.Context, id string) error
	PatchJobCard(ctx context.Context, id string, patch JobCardPatch) error

	GetInspection(ctx context.Context, id string) (*Inspection, error)
	InsertInspection(ctx context.Context, i *Inspection) error
	UpdateInspection(ctx context.Context, i *Inspection) error
	DeleteInspection(ctx context.Context, id string) error
}

// Commenter appends an audit comment to a document's trail.
type Commenter interface {
	Comment(ctx context.Context, entity, entityID, text string) error
}
