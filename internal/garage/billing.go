package garage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DocLine is one line carried over from a job card item onto a downstream
// quotation or invoice. Amounts are recomputed by the receiving document.
type DocLine struct {
	ItemCode  string
	Qty       float64
	Rate      float64
	Warehouse string
	// StockItem marks part lines; only these move warehouse stock.
	StockItem bool
}

// QuotationInput is the handshake for creating a quotation from a job card.
type QuotationInput struct {
	Customer string
	Company  string
	Lines    []DocLine
}

// SalesInvoiceInput is the handshake for creating a sales invoice from a
// job card. UpdateStock asks the invoice to deduct the listed warehouses.
type SalesInvoiceInput struct {
	Customer     string
	Company      string
	PostingDate  time.Time
	SetWarehouse string
	UpdateStock  bool
	JobCardRef   string
	Lines        []DocLine
}

// SalesGateway creates the downstream accounting documents. Their internal
// computation (taxes, totals, stock ledger) is out of this package's
// hands; only the fields above are part of the contract.
type SalesGateway interface {
	CreateQuotation(ctx context.Context, in QuotationInput) (string, error)
	CreateSalesInvoice(ctx context.Context, in SalesInvoiceInput) (string, error)
}

// StockChecker reports the quantity on hand for an item in a warehouse.
type StockChecker interface {
	Available(ctx context.Context, itemCode, warehouse string) (float64, error)
}

// BillingService drives the job card invoicing transitions. The stock
// check and the invoice's own deduction are not atomic with each other: the
// deduction runs FOR UPDATE inside the invoice insert transaction, so a
// concurrent invoicer can fail the insert but can never drive a bin
// negative, and a failed insert leaves the job card untouched.
type BillingService struct {
	store    Store
	sales    SalesGateway
	stock    StockChecker
	comments Commenter
	logger   *slog.Logger
}

// NewBillingService wires the billing workflow dependencies.
func NewBillingService(store Store, sales SalesGateway, stock StockChecker, comments Commenter, logger *slog.Logger) *BillingService {
	return &BillingService{
		store:    store,
		sales:    sales,
		stock:    stock,
		comments: comments,
		logger:   logger,
	}
}

// CreateQuotation creates a quotation with one line per service and part
// item and stores its id on the job card. Calling it twice creates two
// quotations and overwrites the ref with the second.
func (b *BillingService) CreateQuotation(ctx context.Context, jobCardID string) (string, error) {
	jc, err := b.store.GetJobCard(ctx, jobCardID)
	if err != nil {
		return "", err
	}
	if !jc.HasItems() {
		return "", fmt.Errorf("%w: add at least one service or part item", ErrEmptyOrder)
	}

	quotationID, err := b.sales.CreateQuotation(ctx, QuotationInput{
		Customer: jc.Customer,
		Company:  jc.Company,
		Lines:    carryLines(jc, false),
	})
	if err != nil {
		b.logger.Error("quotation creation failed",
			slog.String("job_card", jc.ID), slog.Any("error", err))
		return "", &CreationError{Doc: "Quotation", Err: err}
	}

	ref := quotationID
	if err := b.store.PatchJobCard(ctx, jc.ID, JobCardPatch{QuotationRef: &ref}); err != nil {
		return "", fmt.Errorf("link quotation %s: %w", quotationID, err)
	}
	return quotationID, nil
}

// CreateSalesInvoice creates a stock-updating sales invoice for an
// Approved or Ready to Invoice job card, then writes the invoice ref and
// flips the status to Invoiced as a system patch against the persisted
// record. The job card is left unmodified on any failure.
func (b *BillingService) CreateSalesInvoice(ctx context.Context, jobCardID string) (string, error) {
	jc, err := b.store.GetJobCard(ctx, jobCardID)
	if err != nil {
		return "", err
	}

	if jc.Status != JobCardApproved && jc.Status != JobCardReadyToInvoice {
		return "", fmt.Errorf("%w: job card must be Approved or Ready to Invoice, got %q",
			ErrInvalidState, jc.Status)
	}
	if jc.SalesInvoiceRef != "" {
		return "", fmt.Errorf("%w: sales invoice %s already exists for this job card",
			ErrDuplicate, jc.SalesInvoiceRef)
	}
	if !jc.HasItems() {
		return "", fmt.Errorf("%w: add at least one service or part item before creating invoice",
			ErrEmptyOrder)
	}
	if err := b.checkStock(ctx, jc); err != nil {
		return "", err
	}

	invoiceID, err := b.sales.CreateSalesInvoice(ctx, SalesInvoiceInput{
		Customer:     jc.Customer,
		Company:      jc.Company,
		PostingDate:  jc.PostingDate,
		SetWarehouse: jc.Warehouse,
		UpdateStock:  true,
		JobCardRef:   jc.ID,
		Lines:        carryLines(jc, true),
	})
	if err != nil {
		b.logger.Error("sales invoice creation failed",
			slog.String("job_card", jc.ID), slog.Any("error", err))
		return "", &CreationError{Doc: "Sales Invoice", Err: err}
	}

	// The invariants already hold; write the refs directly against the
	// persisted record instead of a full revalidating save.
	ref := invoiceID
	status := JobCardInvoiced
	if err := b.store.PatchJobCard(ctx, jc.ID, JobCardPatch{
		SalesInvoiceRef: &ref,
		Status:          &status,
	}); err != nil {
		return "", fmt.Errorf("link sales invoice %s: %w", invoiceID, err)
	}

	jc, err = b.store.GetJobCard(ctx, jc.ID)
	if err != nil {
		return "", fmt.Errorf("reload job card: %w", err)
	}
	comment := fmt.Sprintf("Sales Invoice %s created and Job Card status changed to Invoiced", invoiceID)
	if err := b.comments.Comment(ctx, "Job Card", jc.ID, comment); err != nil {
		b.logger.Warn("audit comment failed",
			slog.String("job_card", jc.ID), slog.Any("error", err))
	}
	return invoiceID, nil
}

// checkStock collects every shortfall across the part items before
// rejecting, so the caller sees the complete picture.
func (b *BillingService) checkStock(ctx context.Context, jc *JobCard) error {
	var shortfalls []Shortfall
	for _, item := range jc.PartItems {
		warehouse := jc.EffectiveWarehouse(item)
		available, err := b.stock.Available(ctx, item.ItemCode, warehouse)
		if err != nil {
			return fmt.Errorf("stock lookup %s@%s: %w", item.ItemCode, warehouse, err)
		}
		if available < item.Qty {
			shortfalls = append(shortfalls, Shortfall{
				ItemCode:  item.ItemCode,
				Warehouse: warehouse,
				Available: available,
				Required:  item.Qty,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

func carryLines(jc *JobCard, withWarehouse bool) []DocLine {
	lines := make([]DocLine, 0, len(jc.ServiceItems)+len(jc.PartItems))
	for _, item := range jc.ServiceItems {
		line := DocLine{ItemCode: item.ItemCode, Qty: item.Qty, Rate: item.Rate}
		if withWarehouse {
			line.Warehouse = jc.Warehouse
		}
		lines = append(lines, line)
	}
	for _, item := range jc.PartItems {
		line := DocLine{ItemCode: item.ItemCode, Qty: item.Qty, Rate: item.Rate, StockItem: true}
		if withWarehouse {
			line.Warehouse = jc.EffectiveWarehouse(item)
		}
		lines = append(lines, line)
	}
	return lines
}
