// Package garage models the workshop documents (vehicles, service
// appointments, job cards, vehicle inspections) and the lifecycle rules
// that keep them consistent.
package garage

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "Scheduled"
	AppointmentCheckedIn  AppointmentStatus = "Checked-In"
	AppointmentInProgress AppointmentStatus = "In Progress"
	AppointmentCompleted  AppointmentStatus = "Completed"
	AppointmentCancelled  AppointmentStatus = "Cancelled"
	AppointmentNoShow     AppointmentStatus = "No-Show"
)

// AppointmentStatuses enumerates every valid appointment status.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentScheduled,
	AppointmentCheckedIn,
	AppointmentInProgress,
	AppointmentCompleted,
	AppointmentCancelled,
	AppointmentNoShow,
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range AppointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type JobCardStatus string

const (
	JobCardDraft          JobCardStatus = "Draft"
	JobCardCheckedIn      JobCardStatus = "Checked In"
	JobCardInspected      JobCardStatus = "Inspected"
	JobCardEstimated      JobCardStatus = "Estimated"
	JobCardApproved       JobCardStatus = "Approved"
	JobCardInProgress     JobCardStatus = "In Progress"
	JobCardReadyToInvoice JobCardStatus = "Ready to Invoice"
	JobCardInvoiced       JobCardStatus = "Invoiced"
	JobCardClosed         JobCardStatus = "Closed"
)

// JobCardStatuses enumerates the job card lifecycle in order.
var JobCardStatuses = []JobCardStatus{
	JobCardDraft,
	JobCardCheckedIn,
	JobCardInspected,
	JobCardEstimated,
	JobCardApproved,
	JobCardInProgress,
	JobCardReadyToInvoice,
	JobCardInvoiced,
	JobCardClosed,
}

func (s JobCardStatus) Valid() bool {
	for _, v := range JobCardStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ActiveJobCardStatuses are the statuses counted as work in progress on
// the dashboard.
var ActiveJobCardStatuses = []JobCardStatus{
	JobCardCheckedIn,
	JobCardInspected,
	JobCardInProgress,
}

// Vehicle belongs to a customer and is identified by its license plate.
type Vehicle struct {
	ID           string    `json:"id"`
	Customer     string    `json:"customer"`
	LicensePlate string    `json:"license_plate,omitempty"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Appointment is a scheduled visit slot. JobCardRef and InspectionRef are
// back-links owned by the job card / inspection sync logic and are never
// written through the user-save path.
type Appointment struct {
	ID             string            `json:"id"`
	Customer       string            `json:"customer"`
	Vehicle        string            `json:"vehicle,omitempty"`
	ScheduledStart time.Time         `json:"scheduled_start"`
	ScheduledEnd   time.Time         `json:"scheduled_end"`
	Status         AppointmentStatus `json:"status"`
	ServiceAdvisor string            `json:"service_advisor,omitempty"`
	JobCardRef     string            `json:"job_card_ref,omitempty"`
	InspectionRef  string            `json:"inspection_ref,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// JobCardItem is one service or part line on a job card. Amount is always
// Qty*Rate, recomputed on every save.
type JobCardItem struct {
	ItemCode  string  `json:"item_code"`
	Qty       float64 `json:"qty"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
	Warehouse string  `json:"warehouse,omitempty"`
}

// JobCard is the central work order tracking a service visit from intake
// to invoicing.
type JobCard struct {
	ID              string        `json:"id"`
	Appointment     string        `json:"appointment,omitempty"`
	Customer        string        `json:"customer"`
	Vehicle         string        `json:"vehicle,omitempty"`
	ServiceAdvisor  string        `json:"service_advisor,omitempty"`
	Company         string        `json:"company,omitempty"`
	PostingDate     time.Time     `json:"posting_date"`
	Warehouse       string        `json:"warehouse,omitempty"`
	Status          JobCardStatus `json:"status"`
	ServiceItems    []JobCardItem `json:"service_items,omitempty"`
	PartItems       []JobCardItem `json:"part_items,omitempty"`
	QuotationRef    string        `json:"quotation_ref,omitempty"`
	SalesInvoiceRef string        `json:"sales_invoice_ref,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// EffectiveWarehouse resolves the warehouse an item draws stock from: the
// line's own override when present, else the job card default.
func (jc *JobCard) EffectiveWarehouse(item JobCardItem) string {
	if item.Warehouse != "" {
		return item.Warehouse
	}
	return jc.Warehouse
}

// HasItems reports whether the job card carries at least one billable line.
func (jc *JobCard) HasItems() bool {
	return len(jc.ServiceItems) > 0 || len(jc.PartItems) > 0
}

// Inspection records a vehicle condition assessment, optionally tied to an
// appointment and/or job card.
type Inspection struct {
	ID             string    `json:"id"`
	JobCard        string    `json:"job_card,omitempty"`
	Appointment    string    `json:"appointment,omitempty"`
	Customer       string    `json:"customer,omitempty"`
	Vehicle        string    `json:"vehicle,omitempty"`
	InspectionDate time.Time `json:"inspection_date"`
	Inspector      string    `json:"inspector,omitempty"`
	Remarks        string    `json:"remarks,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
