package checkout

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/campaigns"
	"github.com/vendapos/venda-backend/internal/cart"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/metrics"
)

type fakeProductStore struct {
	byID map[uuid.UUID]*models.Product
}

func (f *fakeProductStore) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.byID[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (f *fakeProductStore) FindByCodeOrBarcode(_ context.Context, scanned string) (*models.Product, error) {
	for _, product := range f.byID {
		if product.Code == scanned {
			return product, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeNotFound, "no product matches the scanned code")
}

type fakeCustomerStore struct {
	byID map[uuid.UUID]*models.Customer
}

func (f *fakeCustomerStore) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := f.byID[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

type fakeCampaignCatalog struct {
	active []models.Campaign
	usage  map[uuid.UUID]map[uuid.UUID]int // campaign -> customer -> count
}

func (f *fakeCampaignCatalog) ListActive(_ context.Context, _ time.Time) ([]models.Campaign, error) {
	return f.active, nil
}

func (f *fakeCampaignCatalog) CountCustomerUsage(_ context.Context, campaignID, customerID uuid.UUID) (int, error) {
	return f.usage[campaignID][customerID], nil
}

type fakeResolver struct {
	byCode map[string]*models.Campaign
}

func (f *fakeResolver) Resolve(_ context.Context, code string, _ decimal.Decimal, _ *uuid.UUID) (*models.Campaign, error) {
	campaign, ok := f.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation, "promo code not recognized")
	}
	return campaign, nil
}

type fakeRates struct {
	rate decimal.Decimal
}

func (f *fakeRates) Load(_ context.Context) decimal.Decimal {
	return f.rate
}

type fakeStockChecker struct {
	err error
}

func (f *fakeStockChecker) Validate(_ context.Context, _ []cart.Line) error {
	return f.err
}

type fakeSaleWriter struct {
	mu      sync.Mutex
	inputs  []sales.Input
	err     error
	release chan struct{}
}

func (f *fakeSaleWriter) Create(ctx context.Context, input sales.Input) (*models.Sale, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	sale := &models.Sale{
		ID:             uuid.New(),
		CustomerID:     input.CustomerID,
		Subtotal:       input.Subtotal,
		Discount:       input.Discount,
		Tax:            input.Tax,
		Total:          input.Total,
		PaymentMethod:  input.PaymentMethod,
		AmountPaid:     input.AmountPaid,
		Change:         input.Change,
		RedeemedPoints: input.RedeemedPoints,
		Notes:          input.Notes,
	}
	return sale, nil
}

type fakeUsageRecorder struct {
	calls chan []campaigns.Applied
}

func (f *fakeUsageRecorder) RecordSale(_ context.Context, applied []campaigns.Applied, _ decimal.Decimal, _ *uuid.UUID, _ *string) {
	if f.calls != nil {
		f.calls <- applied
	}
}

type testEnv struct {
	svc       *Service
	products  *fakeProductStore
	customers *fakeCustomerStore
	catalog   *fakeCampaignCatalog
	resolver  *fakeResolver
	stock     *fakeStockChecker
	sales     *fakeSaleWriter
	recorder  *fakeUsageRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		products:  &fakeProductStore{byID: map[uuid.UUID]*models.Product{}},
		customers: &fakeCustomerStore{byID: map[uuid.UUID]*models.Customer{}},
		catalog:   &fakeCampaignCatalog{},
		resolver:  &fakeResolver{byCode: map[string]*models.Campaign{}},
		stock:     &fakeStockChecker{},
		sales:     &fakeSaleWriter{},
		recorder:  &fakeUsageRecorder{calls: make(chan []campaigns.Applied, 4)},
	}

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(
		env.products,
		env.customers,
		env.catalog,
		env.resolver,
		&fakeRates{rate: decimal.NewFromInt(16)},
		env.stock,
		env.sales,
		env.recorder,
		metrics.NewCheckoutMetrics(nil),
		log,
		Options{
			PointValue:    decimal.NewFromInt(1),
			CommitTimeout: 2 * time.Second,
			WalkInName:    "Walk-in",
		},
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) addProduct(name string, price int64) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		Code:     "P-" + name,
		Name:     name,
		Unit:     enums.ProductUnitPiece,
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
	e.products.byID[product.ID] = product
	return product
}

func (e *testEnv) addCustomer(name string, points int) *models.Customer {
	customer := &models.Customer{
		ID:            uuid.New(),
		Code:          "C-" + name,
		Name:          name,
		LoyaltyPoints: points,
	}
	e.customers.byID[customer.ID] = customer
	return customer
}

func (e *testEnv) addAutoCampaign(name string, percent int64) models.Campaign {
	campaign := models.Campaign{
		ID:            uuid.New(),
		Name:          name,
		Status:        enums.CampaignStatusActive,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(percent),
		StartsAt:      time.Now().Add(-time.Hour),
		EndsAt:        time.Now().Add(time.Hour),
	}
	e.catalog.active = append(e.catalog.active, campaign)
	return campaign
}

func (e *testEnv) addPromoCampaign(code string, fixed int64) models.Campaign {
	campaign := models.Campaign{
		ID:            uuid.New(),
		Name:          "promo " + code,
		Code:          &code,
		Status:        enums.CampaignStatusActive,
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(fixed),
		StartsAt:      time.Now().Add(-time.Hour),
		EndsAt:        time.Now().Add(time.Hour),
	}
	e.catalog.active = append(e.catalog.active, campaign)
	e.resolver.byCode[strings.ToLower(code)] = &campaign
	return campaign
}

func (e *testEnv) openSession(t *testing.T) *Session {
	t.Helper()
	session, err := e.svc.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return session
}

func mustState(t *testing.T) func(State, error) State {
	return func(state State, err error) State {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return state
	}
}

func TestWorkedExampleThousandSubtotal(t *testing.T) {
	env := newTestEnv(t)
	env.addAutoCampaign("ten percent", 10)
	product := env.addProduct("rice", 100)
	customer := env.addCustomer("Ana", 50)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(10)))
	mustState(t)(session.SelectCustomer(ctx, customer.ID))
	state := mustState(t)(session.SetRedemption(true))

	if !state.Totals.Subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("subtotal = %s, want 1000", state.Totals.Subtotal)
	}
	if !state.Totals.CampaignDiscount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("campaign discount = %s, want 100", state.Totals.CampaignDiscount)
	}
	if state.RedeemedPoints != 50 {
		t.Fatalf("redeemed points = %d, want 50", state.RedeemedPoints)
	}
	if !state.Totals.LoyaltyDiscount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("loyalty discount = %s, want 50", state.Totals.LoyaltyDiscount)
	}
	if !state.Totals.Tax.Equal(decimal.NewFromInt(136)) {
		t.Fatalf("tax = %s, want 136", state.Totals.Tax)
	}
	if !state.Totals.Total.Equal(decimal.NewFromInt(986)) {
		t.Fatalf("total = %s, want 986", state.Totals.Total)
	}
}

func TestPromoCodeAppliesOnce(t *testing.T) {
	env := newTestEnv(t)
	env.addPromoCampaign("SAVE10", 50)
	product := env.addProduct("rice", 100)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	state := mustState(t)(session.ApplyCode(ctx, "save10"))
	if len(state.Applied) != 1 {
		t.Fatalf("applied campaigns = %d, want 1", len(state.Applied))
	}
	if !state.Totals.CampaignDiscount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("discount = %s, want 50", state.Totals.CampaignDiscount)
	}

	_, err := session.ApplyCode(ctx, "SAVE10")
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error on re-apply, got %v", err)
	}
	if got := session.Snapshot(); len(got.Applied) != 1 {
		t.Fatalf("applied campaigns after re-apply = %d, want 1", len(got.Applied))
	}
}

func TestRemoveCodeKeepsAutomaticCampaigns(t *testing.T) {
	env := newTestEnv(t)
	env.addAutoCampaign("ten percent", 10)
	promo := env.addPromoCampaign("SAVE10", 50)
	product := env.addProduct("rice", 100)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	state := mustState(t)(session.ApplyCode(ctx, "SAVE10"))
	if len(state.Applied) != 2 {
		t.Fatalf("applied campaigns = %d, want 2", len(state.Applied))
	}

	state = mustState(t)(session.RemoveCode(promo.ID))
	if len(state.Applied) != 1 {
		t.Fatalf("applied campaigns after removal = %d, want 1", len(state.Applied))
	}
	if state.Applied[0].FromCode() {
		t.Fatal("remaining campaign should be the automatic one")
	}
}

func TestPromoSurvivesCustomerClear(t *testing.T) {
	env := newTestEnv(t)
	env.addPromoCampaign("SAVE10", 50)
	product := env.addProduct("rice", 100)
	customer := env.addCustomer("Ana", 10)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	mustState(t)(session.SelectCustomer(ctx, customer.ID))
	mustState(t)(session.ApplyCode(ctx, "SAVE10"))

	state := session.ClearCustomer()
	if len(state.Applied) != 1 {
		t.Fatalf("applied campaigns after customer clear = %d, want 1", len(state.Applied))
	}
	if !state.Applied[0].FromCode() {
		t.Fatal("surviving campaign should be the promo code")
	}
}

func TestExhaustedPerCustomerCampaignStopsApplying(t *testing.T) {
	env := newTestEnv(t)
	capped := env.addAutoCampaign("first purchase ten percent", 10)
	limit := 1
	env.catalog.active[0].PerCustomerLimit = &limit
	product := env.addProduct("rice", 100)
	ana := env.addCustomer("Ana", 0)
	env.catalog.usage = map[uuid.UUID]map[uuid.UUID]int{
		capped.ID: {ana.ID: 1},
	}

	session := env.openSession(t)
	ctx := context.Background()

	// Walk-in sale: per-customer caps do not apply.
	state := mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(10)))
	if len(state.Applied) != 1 {
		t.Fatalf("applied campaigns for walk-in = %d, want 1", len(state.Applied))
	}

	state = mustState(t)(session.SelectCustomer(ctx, ana.ID))
	if len(state.Applied) != 0 {
		t.Fatalf("applied campaigns for exhausted member = %d, want 0", len(state.Applied))
	}
	if !state.Totals.CampaignDiscount.IsZero() {
		t.Fatalf("campaign discount = %s, want 0", state.Totals.CampaignDiscount)
	}

	// Clearing the customer restores the walk-in evaluation.
	state = session.ClearCustomer()
	if len(state.Applied) != 1 {
		t.Fatalf("applied campaigns after clear = %d, want 1", len(state.Applied))
	}
}

func TestCustomerSwitchResetsRedemption(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("rice", 100)
	ana := env.addCustomer("Ana", 500)
	joao := env.addCustomer("Joao", 500)

	session := env.openSession(t)
	ctx := context.Background()

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(2)))
	mustState(t)(session.SelectCustomer(ctx, ana.ID))
	state := mustState(t)(session.SetRedemption(true))
	if state.RedeemedPoints == 0 {
		t.Fatal("expected points redeemed for Ana")
	}

	state = mustState(t)(session.SelectCustomer(ctx, joao.ID))
	if state.RedeemEnabled || state.RedeemedPoints != 0 {
		t.Fatal("switching customers must reset the redemption toggle")
	}
}

func TestEmptyingCartDropsPromoAndDiscounts(t *testing.T) {
	env := newTestEnv(t)
	env.addAutoCampaign("ten percent", 10)
	env.addPromoCampaign("SAVE10", 50)
	product := env.addProduct("rice", 100)

	session := env.openSession(t)
	ctx := context.Background()

	state := mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	lineID := state.Lines[0].ID
	mustState(t)(session.ApplyCode(ctx, "SAVE10"))

	state = mustState(t)(session.RemoveLine(lineID))
	if len(state.Applied) != 0 {
		t.Fatalf("applied campaigns on empty cart = %d, want 0", len(state.Applied))
	}
	if !state.Totals.Total.IsZero() {
		t.Fatalf("total on empty cart = %s, want 0", state.Totals.Total)
	}

	// Re-adding items must not resurrect the dropped promo code.
	state = mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(5)))
	for _, applied := range state.Applied {
		if applied.FromCode() {
			t.Fatal("promo code should not survive an emptied cart")
		}
	}
}

func TestRedemptionRequiresCustomerAndItems(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("rice", 100)

	session := env.openSession(t)
	ctx := context.Background()

	_, err := session.SetRedemption(true)
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error without customer, got %v", err)
	}

	customer := env.addCustomer("Ana", 100)
	mustState(t)(session.SelectCustomer(ctx, customer.ID))

	_, err = session.SetRedemption(true)
	typed = apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error on empty cart, got %v", err)
	}

	mustState(t)(session.AddProductByID(ctx, product.ID, decimal.NewFromInt(1)))
	if _, err := session.SetRedemption(true); err != nil {
		t.Fatalf("SetRedemption: %v", err)
	}
}

func TestInactiveProductRejected(t *testing.T) {
	env := newTestEnv(t)
	product := env.addProduct("pulled", 100)
	product.IsActive = false

	session := env.openSession(t)
	_, err := session.AddProductByID(context.Background(), product.ID, decimal.NewFromInt(1))
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
