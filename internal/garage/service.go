package garage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the user-save pipeline for workshop documents:
// validate against the current store state, persist, then run the link
// synchronizer. Each save runs inside one store transaction so a failed
// back-link write aborts the whole save.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the document service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func newID() string { return uuid.NewString() }

// SaveVehicle validates and persists a vehicle. A document without an ID is
// inserted, otherwise the stored version is replaced.
func (s *Service) SaveVehicle(ctx context.Context, doc *Vehicle) (*Vehicle, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		old, err := loadExisting(ctx, doc.ID, tx.GetVehicle)
		if err != nil {
			return err
		}
		if doc.ID == "" {
			doc.ID = newID()
		}
		if err := NewValidator(tx).ValidateVehicle(ctx, old, doc); err != nil {
			return err
		}
		if old == nil {
			return tx.InsertVehicle(ctx, doc)
		}
		return tx.UpdateVehicle(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveAppointment validates and persists a service appointment. Back-link
// fields are preserved from the stored version; they are owned by the job
// card and inspection sync logic, never by the caller.
func (s *Service) SaveAppointment(ctx context.Context, doc *Appointment) (*Appointment, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		old, err := loadExisting(ctx, doc.ID, tx.GetAppointment)
		if err != nil {
			return err
		}
		if doc.ID == "" {
			doc.ID = newID()
		}
		if doc.Status == "" {
			doc.Status = AppointmentScheduled
		}
		if old != nil {
			doc.JobCardRef = old.JobCardRef
			doc.InspectionRef = old.InspectionRef
		} else {
			doc.JobCardRef = ""
			doc.InspectionRef = ""
		}
		if err := NewValidator(tx).ValidateAppointment(ctx, old, doc); err != nil {
			return err
		}
		if old == nil {
			return tx.InsertAppointment(ctx, doc)
		}
		return tx.UpdateAppointment(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveJobCard validates, persists and links a job card. The card pushes
// itself as the appointment's job_card_ref on insert and every update; the
// job card is the source of truth once linked.
func (s *Service) SaveJobCard(ctx context.Context, doc *JobCard) (*JobCard, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		old, err := loadExisting(ctx, doc.ID, tx.GetJobCard)
		if err != nil {
			return err
		}
		if doc.ID == "" {
			doc.ID = newID()
		}
		if doc.Status == "" {
			doc.Status = JobCardDraft
		}
		if doc.PostingDate.IsZero() {
			doc.PostingDate = s.now()
		}
		if old != nil {
			// Billing owns these refs; a user save carries them forward.
			doc.QuotationRef = old.QuotationRef
			doc.SalesInvoiceRef = old.SalesInvoiceRef
		}
		if err := NewValidator(tx).ValidateJobCard(ctx, old, doc); err != nil {
			return err
		}
		if old == nil {
			if err := tx.InsertJobCard(ctx, doc); err != nil {
				return err
			}
		} else if err := tx.UpdateJobCard(ctx, doc); err != nil {
			return err
		}
		return NewSynchronizer(tx).LinkJobCard(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteJobCard removes a job card and clears the appointment back-link.
func (s *Service) DeleteJobCard(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		doc, err := tx.GetJobCard(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteJobCard(ctx, id); err != nil {
			return err
		}
		return NewSynchronizer(tx).UnlinkJobCard(ctx, doc)
	})
}

// SaveInspection validates, persists and links a vehicle inspection.
func (s *Service) SaveInspection(ctx context.Context, doc *Inspection) (*Inspection, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		old, err := loadExisting(ctx, doc.ID, tx.GetInspection)
		if err != nil {
			return err
		}
		if doc.ID == "" {
			doc.ID = newID()
		}
		if doc.InspectionDate.IsZero() {
			doc.InspectionDate = s.now()
		}
		if err := NewValidator(tx).ValidateInspection(ctx, old, doc); err != nil {
			return err
		}
		if old == nil {
			if err := tx.InsertInspection(ctx, doc); err != nil {
				return err
			}
		} else if err := tx.UpdateInspection(ctx, doc); err != nil {
			return err
		}
		return NewSynchronizer(tx).LinkInspection(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteInspection removes an inspection and clears the appointment
// back-link.
func (s *Service) DeleteInspection(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		doc, err := tx.GetInspection(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteInspection(ctx, id); err != nil {
			return err
		}
		return NewSynchronizer(tx).UnlinkInspection(ctx, doc)
	})
}

// DeleteVehicle removes a vehicle document.
func (s *Service) DeleteVehicle(ctx context.Context, id string) error {
	return s.store.DeleteVehicle(ctx, id)
}

// DeleteAppointment removes an appointment document.
func (s *Service) DeleteAppointment(ctx context.Context, id string) error {
	return s.store.DeleteAppointment(ctx, id)
}

// GetVehicle loads one vehicle.
func (s *Service) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

// GetAppointment loads one appointment.
func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

// GetJobCard loads one job card with its items.
func (s *Service) GetJobCard(ctx context.Context, id string) (*JobCard, error) {
	return s.store.GetJobCard(ctx, id)
}

// GetInspection loads one inspection.
func (s *Service) GetInspection(ctx context.Context, id string) (*Inspection, error) {
	return s.store.GetInspection(ctx, id)
}

func loadExisting[T any](ctx context.Context, id string, get func(context.Context, string) (*T, error)) (*T, error) {
	if id == "" {
		return nil, nil
	}
	old, err := get(ctx, id)
	if err == nil {
		return old, nil
	}
	if isNotFound(err) {
		return nil, nil
	}
	return nil, fmt.Errorf("load existing document: %w", err)
}
