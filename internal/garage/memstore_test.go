package garage

import (
	"context"
	"fmt"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	customers    map[string]bool
	vehicles     map[string]*Vehicle
	appointments map[string]*Appointment
	jobCards     map[string]*JobCard
	inspections  map[string]*Inspection

	appointmentPatches int
	jobCardPatches     int
}

func newMemStore() *memStore {
	return &memStore{
		customers:    make(map[string]bool),
		vehicles:     make(map[string]*Vehicle),
		appointments: make(map[string]*Appointment),
		jobCards:     make(map[string]*JobCard),
		inspections:  make(map[string]*Inspection),
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return fn(ctx, m)
}

func (m *memStore) CustomerExists(ctx context.Context, id string) (bool, error) {
	return m.customers[id], nil
}

func (m *memStore) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	out := *v
	return &out, nil
}

func (m *memStore) VehicleByPlate(ctx context.Context, plate, excludeID string) (string, error) {
	for id, v := range m.vehicles {
		if v.LicensePlate == plate && id != excludeID {
			return id, nil
		}
	}
	return "", nil
}

func (m *memStore) InsertVehicle(ctx context.Context, v *Vehicle) error {
	out := *v
	m.vehicles[v.ID] = &out
	return nil
}

func (m *memStore) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	return m.InsertVehicle(ctx, v)
}

func (m *memStore) DeleteVehicle(ctx context.Context, id string) error {
	delete(m.vehicles, id)
	return nil
}

func (m *memStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	out := *a
	return &out, nil
}

func (m *memStore) InsertAppointment(ctx context.Context, a *Appointment) error {
	out := *a
	m.appointments[a.ID] = &out
	return nil
}

func (m *memStore) UpdateAppointment(ctx context.Context, a *Appointment) error {
	return m.InsertAppointment(ctx, a)
}

func (m *memStore) DeleteAppointment(ctx context.Context, id string) error {
	delete(m.appointments, id)
	return nil
}

func (m *memStore) PatchAppointment(ctx context.Context, id string, patch AppointmentPatch) error {
	a, ok := m.appointments[id]
	if !ok {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	m.appointmentPatches++
	if patch.JobCardRef != nil {
		a.JobCardRef = *patch.JobCardRef
	}
	if patch.InspectionRef != nil {
		a.InspectionRef = *patch.InspectionRef
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	return nil
}

func (m *memStore) GetJobCard(ctx context.Context, id string) (*JobCard, error) {
	jc, ok := m.jobCards[id]
	if !ok {
		return nil, fmt.Errorf("job card %s: %w", id, ErrNotFound)
	}
	out := *jc
	return &out, nil
}

func (m *memStore) InsertJobCard(ctx context.Context, jc *JobCard) error {
	out := *jc
	m.jobCards[jc.ID] = &out
	return nil
}

func (m *memStore) UpdateJobCard(ctx context.Context, jc *JobCard) error {
	return m.InsertJobCard(ctx, jc)
}

func (m *memStore) DeleteJobCard(ctx context.Context, id string) error {
	delete(m.jobCards, id)
	return nil
}

func (m *memStore) PatchJobCard(ctx context.Context, id string, patch JobCardPatch) error {
	jc, ok := m.jobCards[id]
	if !ok {
		return fmt.Errorf("job card %s: %w", id, ErrNotFound)
	}
	m.jobCardPatches++
	if patch.SalesInvoiceRef != nil {
		jc.SalesInvoiceRef = *patch.SalesInvoiceRef
	}
	if patch.QuotationRef != nil {
		jc.QuotationRef = *patch.QuotationRef
	}
	if patch.Status != nil {
		jc.Status = *patch.Status
	}
	return nil
}

func (m *memStore) GetInspection(ctx context.Context, id string) (*Inspection, error) {
	ins, ok := m.inspections[id]
	if !ok {
		return nil, fmt.Errorf("inspection %s: %w", id, ErrNotFound)
	}
	out := *ins
	return &out, nil
}

func (m *memStore) InsertInspection(ctx context.Context, ins *Inspection) error {
	out := *ins
	m.inspections[ins.ID] = &out
	return nil
}

func (m *memStore) UpdateInspection(ctx context.Context, ins *Inspection) error {
	return m.InsertInspection(ctx, ins)
}

func (m *memStore) DeleteInspection(ctx context.Context, id string) error {
	delete(m.inspections, id)
	return nil
}
