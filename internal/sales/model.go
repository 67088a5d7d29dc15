// Package sales owns the downstream accounting documents a job card hands
// off to: quotations and stock-updating sales invoices. Tax computation
// and the wider ledger are outside this system; totals here are flat line
// sums.
package sales

import "time"

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "Draft"
	InvoiceStatusUnpaid    InvoiceStatus = "Unpaid"
	InvoiceStatusPaid      InvoiceStatus = "Paid"
	InvoiceStatusCancelled InvoiceStatus = "Cancelled"
)

type Quotation struct {
	ID        string          `json:"id"`
	DocNumber string          `json:"doc_number"`
	Customer  string          `json:"customer"`
	Company   string          `json:"company,omitempty"`
	Total     float64         `json:"total"`
	Lines     []QuotationLine `json:"lines,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type QuotationLine struct {
	ItemCode string  `json:"item_code"`
	Qty      float64 `json:"qty"`
	Rate     float64 `json:"rate"`
	Amount   float64 `json:"amount"`
}

type SalesInvoice struct {
	ID          string        `json:"id"`
	DocNumber   string        `json:"doc_number"`
	Customer    string        `json:"customer"`
	Company     string        `json:"company,omitempty"`
	PostingDate time.Time     `json:"posting_date"`
	Status      InvoiceStatus `json:"status"`
	UpdateStock bool          `json:"update_stock"`
	JobCardRef  string        `json:"job_card_ref,omitempty"`
	GrandTotal  float64       `json:"grand_total"`
	Lines       []InvoiceLine `json:"lines,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type InvoiceLine struct {
	ItemCode  string  `json:"item_code"`
	Qty       float64 `json:"qty"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
	Warehouse string  `json:"warehouse,omitempty"`
}
