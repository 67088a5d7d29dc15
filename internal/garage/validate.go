package garage

import (
	"context"
	"errors"
	"fmt"
)

// Validator runs the per-variant checks that must pass before a write
// commits. Each method normalizes the incoming document in place (inherited
// fields, recomputed amounts) and returns the first violated invariant.
// No partial mutation is visible to the store on failure.
type Validator struct {
	store Store
}

// NewValidator binds a Validator to an explicit store handle.
func NewValidator(store Store) *Validator {
	return &Validator{store: store}
}

// ValidateVehicle checks the customer reference and license plate
// uniqueness.
func (v *Validator) ValidateVehicle(ctx context.Context, old, doc *Vehicle) error {
	if doc.Customer != "" {
		ok, err := v.store.CustomerExists(ctx, doc.Customer)
		if err != nil {
			return fmt.Errorf("lookup customer %s: %w", doc.Customer, err)
		}
		if !ok {
			return fmt.Errorf("%w: customer %s does not exist", ErrReference, doc.Customer)
		}
	}

	if doc.LicensePlate != "" {
		other, err := v.store.VehicleByPlate(ctx, doc.LicensePlate, doc.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup plate %s: %w", doc.LicensePlate, err)
		}
		if other != "" {
			return fmt.Errorf("%w: license plate %s already exists for vehicle %s",
				ErrUniqueness, doc.LicensePlate, other)
		}
	}
	return nil
}

// ValidateAppointment checks the scheduled interval and the
// vehicle/customer ownership match.
func (v *Validator) ValidateAppointment(ctx context.Context, old, doc *Appointment) error {
	if !doc.ScheduledStart.IsZero() && !doc.ScheduledEnd.IsZero() {
		if !doc.ScheduledEnd.After(doc.ScheduledStart) {
			return fmt.Errorf("%w: Scheduled End must be after Scheduled Start", ErrRange)
		}
	}
	if doc.Status != "" && !doc.Status.Valid() {
		return fmt.Errorf("%w: unknown appointment status %q", ErrInvalidState, doc.Status)
	}
	return v.checkVehicleOwner(ctx, doc.Vehicle, doc.Customer)
}

// ValidateJobCard inherits unset fields from the linked appointment,
// recomputes every line amount, guards against inserting a card that
// already carries an invoice ref, and checks vehicle ownership.
func (v *Validator) ValidateJobCard(ctx context.Context, old, doc *JobCard) error {
	if err := v.inheritFromAppointment(ctx, doc); err != nil {
		return err
	}

	// The duplicate-invoice guard applies to inserts only: an update
	// naturally carries its existing invoice ref forward.
	if old == nil && doc.SalesInvoiceRef != "" {
		return fmt.Errorf("%w: sales invoice already exists for this job card", ErrDuplicate)
	}

	if doc.Status != "" && !doc.Status.Valid() {
		return fmt.Errorf("%w: unknown job card status %q", ErrInvalidState, doc.Status)
	}

	// Amounts are a pure function of qty and rate, never user-editable.
	for i := range doc.ServiceItems {
		doc.ServiceItems[i].Amount = doc.ServiceItems[i].Qty * doc.ServiceItems[i].Rate
	}
	for i := range doc.PartItems {
		doc.PartItems[i].Amount = doc.PartItems[i].Qty * doc.PartItems[i].Rate
	}

	return v.checkVehicleOwner(ctx, doc.Vehicle, doc.Customer)
}

// ValidateInspection inherits vehicle/customer/appointment from the linked
// job card first, then from the appointment. Best effort only; no hard
// invariant beyond resolvable links.
func (v *Validator) ValidateInspection(ctx context.Context, old, doc *Inspection) error {
	if doc.JobCard != "" {
		jc, err := v.store.GetJobCard(ctx, doc.JobCard)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: job card %s does not exist", ErrReference, doc.JobCard)
			}
			return fmt.Errorf("lookup job card %s: %w", doc.JobCard, err)
		}
		if doc.Vehicle == "" {
			doc.Vehicle = jc.Vehicle
		}
		if doc.Customer == "" {
			doc.Customer = jc.Customer
		}
		if doc.Appointment == "" && jc.Appointment != "" {
			doc.Appointment = jc.Appointment
		}
	}

	if doc.Appointment != "" {
		apt, err := v.store.GetAppointment(ctx, doc.Appointment)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: appointment %s does not exist", ErrReference, doc.Appointment)
			}
			return fmt.Errorf("lookup appointment %s: %w", doc.Appointment, err)
		}
		if doc.Vehicle == "" {
			doc.Vehicle = apt.Vehicle
		}
		if doc.Customer == "" {
			doc.Customer = apt.Customer
		}
	}
	return nil
}

func (v *Validator) inheritFromAppointment(ctx context.Context, doc *JobCard) error {
	if doc.Appointment == "" {
		return nil
	}
	apt, err := v.store.GetAppointment(ctx, doc.Appointment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: appointment %s does not exist", ErrReference, doc.Appointment)
		}
		return fmt.Errorf("lookup appointment %s: %w", doc.Appointment, err)
	}
	if doc.Customer == "" {
		doc.Customer = apt.Customer
	}
	if doc.Vehicle == "" {
		doc.Vehicle = apt.Vehicle
	}
	if doc.ServiceAdvisor == "" && apt.ServiceAdvisor != "" {
		doc.ServiceAdvisor = apt.ServiceAdvisor
	}
	return nil
}

func (v *Validator) checkVehicleOwner(ctx context.Context, vehicleID, customerID string) error {
	if vehicleID == "" || customerID == "" {
		return nil
	}
	veh, err := v.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: vehicle %s does not exist", ErrReference, vehicleID)
		}
		return fmt.Errorf("lookup vehicle %s: %w", vehicleID, err)
	}
	if veh.Customer != customerID {
		return fmt.Errorf("%w: vehicle %s does not belong to customer %s",
			ErrConsistency, vehicleID, customerID)
	}
	return nil
}
