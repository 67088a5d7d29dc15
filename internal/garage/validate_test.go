package garage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateVehicleUnknownCustomer(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store)

	err := v.ValidateVehicle(context.Background(), nil, &Vehicle{ID: "V1", Customer: "CUST-404"})
	require.ErrorIs(t, err, ErrReference)
}

func TestValidateVehiclePlateCollision(t *testing.T) {
	store := newMemStore()
	store.customers["CUST-1"] = true
	store.vehicles["V1"] = &Vehicle{ID: "V1", Customer: "CUST-1", LicensePlate: "B 1234 XY"}
	v := NewValidator(store)

	err := v.ValidateVehicle(context.Background(), nil, &Vehicle{ID: "V2", Customer: "CUST-1", LicensePlate: "B 1234 XY"})
	require.ErrorIs(t, err, ErrUniqueness)

	// The vehicle's own plate never collides with itself.
	old, _ := store.GetVehicle(context.Background(), "V1")
	err = v.ValidateVehicle(context.Background(), old, &Vehicle{ID: "V1", Customer: "CUST-1", LicensePlate: "B 1234 XY"})
	require.NoError(t, err)
}

func TestValidateAppointmentWindow(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	err := v.ValidateAppointment(context.Background(), nil, &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start,
	})
	require.ErrorIs(t, err, ErrRange)

	err = v.ValidateAppointment(context.Background(), nil, &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(-time.Hour),
	})
	require.ErrorIs(t, err, ErrRange)

	err = v.ValidateAppointment(context.Background(), nil, &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestValidateAppointmentVehicleOwnership(t *testing.T) {
	store := newMemStore()
	store.vehicles["V1"] = &Vehicle{ID: "V1", Customer: "CUST-1"}
	v := NewValidator(store)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	err := v.ValidateAppointment(context.Background(), nil, &Appointment{
		ID:             "APT-1",
		Customer:       "CUST-2",
		Vehicle:        "V1",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})
	require.ErrorIs(t, err, ErrConsistency)
}

func TestValidateJobCardInheritsFromAppointment(t *testing.T) {
	store := newMemStore()
	store.vehicles["V1"] = &Vehicle{ID: "V1", Customer: "CUST-1"}
	store.appointments["APT-1"] = &Appointment{
		ID: "APT-1", Customer: "CUST-1", Vehicle: "V1", ServiceAdvisor: "advisor@garage.local",
	}
	v := NewValidator(store)

	doc := &JobCard{ID: "JC-1", Appointment: "APT-1"}
	require.NoError(t, v.ValidateJobCard(context.Background(), nil, doc))
	require.Equal(t, "CUST-1", doc.Customer)
	require.Equal(t, "V1", doc.Vehicle)
	require.Equal(t, "advisor@garage.local", doc.ServiceAdvisor)
}

func TestValidateJobCardKeepsExplicitFields(t *testing.T) {
	store := newMemStore()
	store.vehicles["V2"] = &Vehicle{ID: "V2", Customer: "CUST-2"}
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", Customer: "CUST-1", Vehicle: "V1"}
	v := NewValidator(store)

	doc := &JobCard{ID: "JC-1", Appointment: "APT-1", Customer: "CUST-2", Vehicle: "V2"}
	require.NoError(t, v.ValidateJobCard(context.Background(), nil, doc))
	require.Equal(t, "CUST-2", doc.Customer)
	require.Equal(t, "V2", doc.Vehicle)
}

func TestValidateJobCardRecomputesAmounts(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store)

	doc := &JobCard{
		ID:           "JC-1",
		Customer:     "CUST-1",
		ServiceItems: []JobCardItem{{ItemCode: "SVC-OIL", Qty: 2, Rate: 150, Amount: 999}},
		PartItems:    []JobCardItem{{ItemCode: "PART-FILTER", Qty: 3, Rate: 40, Amount: -1}},
	}
	require.NoError(t, v.ValidateJobCard(context.Background(), nil, doc))
	require.InDelta(t, 300.0, doc.ServiceItems[0].Amount, 0.0001)
	require.InDelta(t, 120.0, doc.PartItems[0].Amount, 0.0001)
}

func TestValidateJobCardDuplicateInvoiceGuardInsertOnly(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store)

	doc := &JobCard{ID: "JC-1", Customer: "CUST-1", SalesInvoiceRef: "SINV-0001"}
	err := v.ValidateJobCard(context.Background(), nil, doc)
	require.ErrorIs(t, err, ErrDuplicate)

	// An update carries its existing invoice ref forward.
	old := &JobCard{ID: "JC-1", Customer: "CUST-1", SalesInvoiceRef: "SINV-0001"}
	require.NoError(t, v.ValidateJobCard(context.Background(), old, doc))
}

func TestValidateInspectionInheritsFromJobCardFirst(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", Customer: "CUST-APT", Vehicle: "V-APT"}
	store.jobCards["JC-1"] = &JobCard{ID: "JC-1", Appointment: "APT-1", Customer: "CUST-JC", Vehicle: "V-JC"}
	v := NewValidator(store)

	doc := &Inspection{ID: "INS-1", JobCard: "JC-1"}
	require.NoError(t, v.ValidateInspection(context.Background(), nil, doc))
	require.Equal(t, "CUST-JC", doc.Customer)
	require.Equal(t, "V-JC", doc.Vehicle)
	require.Equal(t, "APT-1", doc.Appointment)
}

func TestValidateInspectionFallsBackToAppointment(t *testing.T) {
	store := newMemStore()
	store.appointments["APT-1"] = &Appointment{ID: "APT-1", Customer: "CUST-APT", Vehicle: "V-APT"}
	v := NewValidator(store)

	doc := &Inspection{ID: "INS-1", Appointment: "APT-1"}
	require.NoError(t, v.ValidateInspection(context.Background(), nil, doc))
	require.Equal(t, "CUST-APT", doc.Customer)
	require.Equal(t, "V-APT", doc.Vehicle)
}

func TestValidateInspectionUnknownJobCard(t *testing.T) {
	store := newMemStore()
	v := NewValidator(store)

	err := v.ValidateInspection(context.Background(), nil, &Inspection{ID: "INS-1", JobCard: "JC-404"})
	require.ErrorIs(t, err, ErrReference)
}
