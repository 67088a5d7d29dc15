package garage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testService(store Store) *Service {
	svc := NewService(store, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSaveVehicleInsertAssignsID(t *testing.T) {
	store := newMemStore()
	store.customers["CUST-1"] = true
	svc := testService(store)

	saved, err := svc.SaveVehicle(context.Background(), &Vehicle{Customer: "CUST-1", LicensePlate: "B 99 ZZ"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := store.GetVehicle(context.Background(), saved.ID)
	require.NoError(t, err)
	require.Equal(t, "B 99 ZZ", got.LicensePlate)
}

func TestSaveAppointmentDefaultsStatus(t *testing.T) {
	store := newMemStore()
	svc := testService(store)
	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	saved, err := svc.SaveAppointment(context.Background(), &Appointment{
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, AppointmentScheduled, saved.Status)
}

func TestSaveAppointmentPreservesBackLinks(t *testing.T) {
	store := newMemStore()
	svc := testService(store)
	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	store.appointments["APT-1"] = &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		Status:         AppointmentInProgress,
		JobCardRef:     "JC-1",
		InspectionRef:  "INS-1",
	}

	// The caller cannot overwrite sync-owned back-links through a save.
	saved, err := svc.SaveAppointment(context.Background(), &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(2 * time.Hour),
		Status:         AppointmentInProgress,
		JobCardRef:     "JC-FORGED",
		InspectionRef:  "",
	})
	require.NoError(t, err)
	require.Equal(t, "JC-1", saved.JobCardRef)
	require.Equal(t, "INS-1", saved.InspectionRef)
}

func TestSaveAppointmentInsertClearsBackLinks(t *testing.T) {
	store := newMemStore()
	svc := testService(store)
	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	saved, err := svc.SaveAppointment(context.Background(), &Appointment{
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
		JobCardRef:     "JC-FORGED",
	})
	require.NoError(t, err)
	require.Empty(t, saved.JobCardRef)
}

func TestSaveJobCardDefaultsAndLinks(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", Customer: "CUST-1", Status: AppointmentScheduled}
	svc := testService(store)

	saved, err := svc.SaveJobCard(context.Background(), &JobCard{Appointment: "APT-1"})
	require.NoError(t, err)
	require.Equal(t, JobCardDraft, saved.Status)
	require.False(t, saved.PostingDate.IsZero())
	require.Equal(t, "CUST-1", saved.Customer)

	apt := store.appointments["APT-1"]
	require.Equal(t, saved.ID, apt.JobCardRef)
	require.Equal(t, AppointmentInProgress, apt.Status)
}

func TestSaveJobCardPreservesBillingRefs(t *testing.T) {
	store := newMemStore()
	svc := testService(store)

	store.jobCards["JC-1"] = &JobCard{
		ID:              "JC-1",
		Customer:        "CUST-1",
		Status:          JobCardInvoiced,
		PostingDate:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		QuotationRef:    "QTN-2603-0001",
		SalesInvoiceRef: "SINV-2603-0001",
	}

	// A user save cannot carry these fields, so they ride along from the
	// stored card. Wiping them would re-arm the duplicate invoice guard.
	saved, err := svc.SaveJobCard(context.Background(), &JobCard{
		ID:       "JC-1",
		Customer: "CUST-1",
		Status:   JobCardInvoiced,
	})
	require.NoError(t, err)
	require.Equal(t, "QTN-2603-0001", saved.QuotationRef)
	require.Equal(t, "SINV-2603-0001", saved.SalesInvoiceRef)

	got, err := store.GetJobCard(context.Background(), "JC-1")
	require.NoError(t, err)
	require.Equal(t, "SINV-2603-0001", got.SalesInvoiceRef)
}

func TestSaveJobCardValidationAbortsSave(t *testing.T) {
	store := newMemStore()
	svc := testService(store)

	_, err := svc.SaveJobCard(context.Background(), &JobCard{Appointment: "APT-404"})
	require.ErrorIs(t, err, ErrReference)
	require.Empty(t, store.jobCards)
}

func TestDeleteJobCardUnlinksAppointment(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", JobCardRef: "JC-1", Status: AppointmentInProgress}
	store.jobCards["JC-1"] = &JobCard{ID: "JC-1", Appointment: "APT-1", Customer: "CUST-1"}
	svc := testService(store)

	require.NoError(t, svc.DeleteJobCard(context.Background(), "JC-1"))
	require.Empty(t, store.jobCards)
	require.Empty(t, store.appointments["APT-1"].JobCardRef)
}

func TestSaveInspectionLinksAppointment(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", Customer: "CUST-1", Vehicle: "V1", Status: AppointmentScheduled}
	svc := testService(store)

	saved, err := svc.SaveInspection(context.Background(), &Inspection{Appointment: "APT-1"})
	require.NoError(t, err)
	require.Equal(t, "CUST-1", saved.Customer)
	require.Equal(t, "V1", saved.Vehicle)
	require.False(t, saved.InspectionDate.IsZero())

	apt := store.appointments["APT-1"]
	require.Equal(t, saved.ID, apt.InspectionRef)
	require.Equal(t, AppointmentScheduled, apt.Status)
}

func TestDeleteInspectionUnlinksAppointment(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", InspectionRef: "INS-1"}
	store.inspections["INS-1"] = &Inspection{ID: "INS-1", Appointment: "APT-1"}
	svc := testService(store)

	require.NoError(t, svc.DeleteInspection(context.Background(), "INS-1"))
	require.Empty(t, store.inspections)
	require.Empty(t, store.appointments["APT-1"].InspectionRef)
}
