package garage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	quotations int
	invoices   int
	lastQuote  QuotationInput
	lastInv    SalesInvoiceInput
	failWith   error
}

func (g *fakeGateway) CreateQuotation(ctx context.Context, in QuotationInput) (string, error) {
	if g.failWith != nil {
		return "", g.failWith
	}
	g.quotations++
	g.lastQuote = in
	return "QTN-2026-0001", nil
}

func (g *fakeGateway) CreateSalesInvoice(ctx context.Context, in SalesInvoiceInput) (string, error) {
	if g.failWith != nil {
		return "", g.failWith
	}
	g.invoices++
	g.lastInv = in
	return "SINV-2026-0001", nil
}

type fakeStock struct {
	levels map[string]float64
}

func (s *fakeStock) Available(ctx context.Context, itemCode, warehouse string) (float64, error) {
	return s.levels[itemCode+"@"+warehouse], nil
}

type fakeCommenter struct {
	comments []string
}

func (c *fakeCommenter) Comment(ctx context.Context, entity, entityID, text string) error {
	c.comments = append(c.comments, text)
	return nil
}

func billableJobCard(status JobCardStatus) *JobCard {
	return &JobCard{
		ID:          "JC-1",
		Customer:    "CUST-1",
		Company:     "Gearbox Motors",
		PostingDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Warehouse:   "Main - GM",
		Status:      status,
		ServiceItems: []JobCardItem{
			{ItemCode: "SVC-OIL", Qty: 1, Rate: 250, Amount: 250},
		},
		PartItems: []JobCardItem{
			{ItemCode: "PART-FILTER", Qty: 2, Rate: 45, Amount: 90},
		},
	}
}

func billingFixture(jc *JobCard, stock *fakeStock) (*BillingService, *memStore, *fakeGateway, *fakeCommenter) {
	store := newMemStore()
	if jc != nil {
		store.jobCards[jc.ID] = jc
	}
	gateway := &fakeGateway{}
	comments := &fakeCommenter{}
	if stock == nil {
		stock = &fakeStock{levels: map[string]float64{"PART-FILTER@Main - GM": 10}}
	}
	return NewBillingService(store, gateway, stock, comments, slog.Default()), store, gateway, comments
}

func TestCreateQuotationEmptyJobCard(t *testing.T) {
	jc := billableJobCard(JobCardDraft)
	jc.ServiceItems = nil
	jc.PartItems = nil
	svc, _, _, _ := billingFixture(jc, nil)

	_, err := svc.CreateQuotation(context.Background(), "JC-1")
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateQuotationLinksJobCard(t *testing.T) {
	svc, store, gateway, _ := billingFixture(billableJobCard(JobCardEstimated), nil)

	id, err := svc.CreateQuotation(context.Background(), "JC-1")
	require.NoError(t, err)
	require.Equal(t, "QTN-2026-0001", id)
	require.Equal(t, 1, gateway.quotations)
	require.Len(t, gateway.lastQuote.Lines, 2)
	require.Equal(t, "QTN-2026-0001", store.jobCards["JC-1"].QuotationRef)
}

func TestCreateSalesInvoiceStatusGate(t *testing.T) {
	for _, status := range []JobCardStatus{JobCardDraft, JobCardInProgress, JobCardInvoiced, JobCardClosed} {
		svc, _, _, _ := billingFixture(billableJobCard(status), nil)
		_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
		require.ErrorIs(t, err, ErrInvalidState, "status %s", status)
	}
	for _, status := range []JobCardStatus{JobCardApproved, JobCardReadyToInvoice} {
		svc, _, _, _ := billingFixture(billableJobCard(status), nil)
		_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
		require.NoError(t, err, "status %s", status)
	}
}

func TestCreateSalesInvoiceDuplicateGuard(t *testing.T) {
	jc := billableJobCard(JobCardApproved)
	jc.SalesInvoiceRef = "SINV-OLD"
	svc, _, gateway, _ := billingFixture(jc, nil)

	_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
	require.ErrorIs(t, err, ErrDuplicate)
	require.Zero(t, gateway.invoices)
}

func TestCreateSalesInvoiceCollectsAllShortfalls(t *testing.T) {
	jc := billableJobCard(JobCardApproved)
	jc.PartItems = []JobCardItem{
		{ItemCode: "PART-FILTER", Qty: 5, Rate: 45},
		{ItemCode: "PART-BELT", Qty: 2, Rate: 80, Warehouse: "Spares - GM"},
	}
	stock := &fakeStock{levels: map[string]float64{
		"PART-FILTER@Main - GM": 1,
		"PART-BELT@Spares - GM": 0,
	}}
	svc, store, gateway, _ := billingFixture(jc, stock)

	_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Shortfalls, 2)
	require.Equal(t, "PART-FILTER", stockErr.Shortfalls[0].ItemCode)
	require.Equal(t, "Main - GM", stockErr.Shortfalls[0].Warehouse)
	require.InDelta(t, 1.0, stockErr.Shortfalls[0].Available, 0.0001)
	require.Equal(t, "Spares - GM", stockErr.Shortfalls[1].Warehouse)
	require.Zero(t, gateway.invoices)
	require.Empty(t, store.jobCards["JC-1"].SalesInvoiceRef)
}

func TestCreateSalesInvoiceGatewayFailureLeavesJobCard(t *testing.T) {
	svc, store, gateway, comments := billingFixture(billableJobCard(JobCardApproved), nil)
	gateway.failWith = errors.New("ledger rejected posting")

	_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
	var creationErr *CreationError
	require.ErrorAs(t, err, &creationErr)
	require.Equal(t, "Sales Invoice", creationErr.Doc)

	jc := store.jobCards["JC-1"]
	require.Empty(t, jc.SalesInvoiceRef)
	require.Equal(t, JobCardApproved, jc.Status)
	require.Empty(t, comments.comments)
}

func TestCreateSalesInvoiceSuccess(t *testing.T) {
	svc, store, gateway, comments := billingFixture(billableJobCard(JobCardReadyToInvoice), nil)

	id, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
	require.NoError(t, err)
	require.Equal(t, "SINV-2026-0001", id)

	require.True(t, gateway.lastInv.UpdateStock)
	require.Equal(t, "Main - GM", gateway.lastInv.SetWarehouse)
	require.Equal(t, "JC-1", gateway.lastInv.JobCardRef)
	require.Len(t, gateway.lastInv.Lines, 2)
	require.False(t, gateway.lastInv.Lines[0].StockItem)
	require.True(t, gateway.lastInv.Lines[1].StockItem)

	jc := store.jobCards["JC-1"]
	require.Equal(t, "SINV-2026-0001", jc.SalesInvoiceRef)
	require.Equal(t, JobCardInvoiced, jc.Status)

	require.Len(t, comments.comments, 1)
	require.Contains(t, comments.comments[0], "SINV-2026-0001")
	require.Contains(t, comments.comments[0], "Invoiced")
}

func TestCreateSalesInvoiceLineOverridesWarehouse(t *testing.T) {
	jc := billableJobCard(JobCardApproved)
	jc.PartItems[0].Warehouse = "Spares - GM"
	stock := &fakeStock{levels: map[string]float64{"PART-FILTER@Spares - GM": 10}}
	svc, _, gateway, _ := billingFixture(jc, stock)

	_, err := svc.CreateSalesInvoice(context.Background(), "JC-1")
	require.NoError(t, err)
	require.Equal(t, "Spares - GM", gateway.lastInv.Lines[1].Warehouse)
}
