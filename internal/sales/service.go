package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gearbox-erp/gearbox-erp/internal/garage"
	"github.com/gearbox-erp/gearbox-erp/internal/inventory"
)

// Stock is the slice of the inventory service the invoice path needs.
type Stock interface {
	Deduct(ctx context.Context, movements []inventory.Movement) error
	Receive(ctx context.Context, movements []inventory.Movement) error
}

// Service creates the downstream documents for the billing workflow. It
// implements garage.SalesGateway.
type Service struct {
	repo   Repository
	stock  Stock
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the sales document service.
func NewService(repo Repository, stock Stock, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		stock:  stock,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateQuotation persists a quotation with one line per carried item and
// returns its id. Amounts are recomputed here, not trusted from the
// caller.
func (s *Service) CreateQuotation(ctx context.Context, in garage.QuotationInput) (string, error) {
	q := &Quotation{
		ID:       uuid.NewString(),
		Customer: in.Customer,
		Company:  in.Company,
	}
	for _, line := range in.Lines {
		amount := line.Qty * line.Rate
		q.Total += amount
		q.Lines = append(q.Lines, QuotationLine{
			ItemCode: line.ItemCode,
			Qty:      line.Qty,
			Rate:     line.Rate,
			Amount:   amount,
		})
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, "QTN", s.now())
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		q.DocNumber = docNumber
		return repo.InsertQuotation(ctx, q)
	})
	if err != nil {
		return "", err
	}
	return q.ID, nil
}

// CreateSalesInvoice deducts stock for warehouse-bearing lines first (the
// deduction is atomic and cannot drive a bin negative), then inserts the
// invoice. A failed insert restores the deducted stock before returning.
func (s *Service) CreateSalesInvoice(ctx context.Context, in garage.SalesInvoiceInput) (string, error) {
	inv := &SalesInvoice{
		ID:          uuid.NewString(),
		Customer:    in.Customer,
		Company:     in.Company,
		PostingDate: in.PostingDate,
		Status:      InvoiceStatusUnpaid,
		UpdateStock: in.UpdateStock,
		JobCardRef:  in.JobCardRef,
	}
	if inv.PostingDate.IsZero() {
		inv.PostingDate = s.now()
	}

	var movements []inventory.Movement
	for _, line := range in.Lines {
		amount := line.Qty * line.Rate
		inv.GrandTotal += amount
		warehouse := line.Warehouse
		if warehouse == "" {
			warehouse = in.SetWarehouse
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			ItemCode:  line.ItemCode,
			Qty:       line.Qty,
			Rate:      line.Rate,
			Amount:    amount,
			Warehouse: warehouse,
		})
		if in.UpdateStock && line.StockItem && warehouse != "" {
			movements = append(movements, inventory.Movement{
				ItemCode:  line.ItemCode,
				Warehouse: warehouse,
				Qty:       line.Qty,
			})
		}
	}

	if len(movements) > 0 {
		if err := s.stock.Deduct(ctx, movements); err != nil {
			return "", fmt.Errorf("deduct stock: %w", err)
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, "SINV", inv.PostingDate)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		inv.DocNumber = docNumber
		return repo.InsertInvoice(ctx, inv)
	})
	if err != nil {
		if len(movements) > 0 {
			if restoreErr := s.stock.Receive(ctx, movements); restoreErr != nil {
				s.logger.Error("stock restore after failed invoice insert",
					slog.String("invoice", inv.ID), slog.Any("error", restoreErr))
			}
		}
		return "", err
	}
	return inv.ID, nil
}

// GetInvoice loads one sales invoice with its lines.
func (s *Service) GetInvoice(ctx context.Context, id string) (*SalesInvoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// GetQuotation loads one quotation with its lines.
func (s *Service) GetQuotation(ctx context.Context, id string) (*Quotation, error) {
	return s.repo.GetQuotation(ctx, id)
}
