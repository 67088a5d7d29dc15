package garage

import (
	"context"
	"errors"
	"fmt"
)

// Synchronizer maintains the appointment back-links owned by job cards and
// inspections. All writes go through Store.PatchAppointment, the system
// write path that does not re-enter validation and does not touch the
// appointment's updated_at.
type Synchronizer struct {
	store Store
}

// NewSynchronizer binds a Synchronizer to an explicit store handle.
func NewSynchronizer(store Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// LinkJobCard pushes the job card onto its appointment's job_card_ref and
// flips the appointment to In Progress. Re-running with an already-correct
// back-link is a no-op.
func (s *Synchronizer) LinkJobCard(ctx context.Context, jc *JobCard) error {
	if jc.Appointment == "" {
		return nil
	}
	apt, err := s.store.GetAppointment(ctx, jc.Appointment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("sync job card link: %w", err)
	}
	if apt.JobCardRef == jc.ID {
		return nil
	}
	ref := jc.ID
	status := AppointmentInProgress
	return s.store.PatchAppointment(ctx, jc.Appointment, AppointmentPatch{
		JobCardRef: &ref,
		Status:     &status,
	})
}

// UnlinkJobCard clears the appointment back-link when a job card is
// deleted.
func (s *Synchronizer) UnlinkJobCard(ctx context.Context, jc *JobCard) error {
	if jc.Appointment == "" {
		return nil
	}
	empty := ""
	return s.store.PatchAppointment(ctx, jc.Appointment, AppointmentPatch{
		JobCardRef: &empty,
	})
}

// LinkInspection pushes the inspection onto its appointment's
// inspection_ref. No status side effect.
func (s *Synchronizer) LinkInspection(ctx context.Context, ins *Inspection) error {
	if ins.Appointment == "" {
		return nil
	}
	apt, err := s.store.GetAppointment(ctx, ins.Appointment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("sync inspection link: %w", err)
	}
	if apt.InspectionRef == ins.ID {
		return nil
	}
	ref := ins.ID
	return s.store.PatchAppointment(ctx, ins.Appointment, AppointmentPatch{
		InspectionRef: &ref,
	})
}

// UnlinkInspection clears the appointment back-link when an inspection is
// deleted.
func (s *Synchronizer) UnlinkInspection(ctx context.Context, ins *Inspection) error {
	if ins.Appointment == "" {
		return nil
	}
	empty := ""
	return s.store.PatchAppointment(ctx, ins.Appointment, AppointmentPatch{
		InspectionRef: &empty,
	})
}
