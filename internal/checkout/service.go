// Package checkout orchestrates one sale from an open cart to a committed,
// immutable record: discount stacking, point redemption, tax, payment
// gating, pre-commit stock validation and the final write.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/internal/campaigns"
	"github.com/vendapos/venda-backend/internal/cart"
	"github.com/vendapos/venda-backend/internal/payment"
	"github.com/vendapos/venda-backend/internal/pricing"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/metrics"
	"github.com/vendapos/venda-backend/pkg/money"
)

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByCodeOrBarcode(ctx context.Context, scanned string) (*models.Product, error)
}

type customerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type campaignLister interface {
	ListActive(ctx context.Context, now time.Time) ([]models.Campaign, error)
	CountCustomerUsage(ctx context.Context, campaignID, customerID uuid.UUID) (int, error)
}

type codeResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal, customerID *uuid.UUID) (*models.Campaign, error)
}

type rateLoader interface {
	Load(ctx context.Context) decimal.Decimal
}

type stockChecker interface {
	Validate(ctx context.Context, lines []cart.Line) error
}

type saleWriter interface {
	Create(ctx context.Context, input sales.Input) (*models.Sale, error)
}

type usageRecorder interface {
	RecordSale(ctx context.Context, applied []campaigns.Applied, saleTotal decimal.Decimal, customerID *uuid.UUID, customerName *string)
}

// Options carries the per-sale tunables from configuration.
type Options struct {
	PointValue    decimal.Decimal
	CommitTimeout time.Duration
	WalkInName    string
}

// Service opens checkout sessions and runs commits against the shared
// collaborators.
type Service struct {
	products  productFinder
	customers customerFinder
	catalog   campaignLister
	resolver  codeResolver
	rates     rateLoader
	stock     stockChecker
	sales     saleWriter
	recorder  usageRecorder
	metrics   *metrics.CheckoutMetrics
	log       *logger.Logger
	opts      Options
}

// NewService builds the checkout service.
func NewService(
	products productFinder,
	customers customerFinder,
	catalog campaignLister,
	resolver codeResolver,
	rates rateLoader,
	stock stockChecker,
	saleWriter saleWriter,
	recorder usageRecorder,
	checkoutMetrics *metrics.CheckoutMetrics,
	log *logger.Logger,
	opts Options,
) (*Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer finder required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("campaign lister required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("code resolver required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rate loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	if saleWriter == nil {
		return nil, fmt.Errorf("sale writer required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("usage recorder required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.CommitTimeout <= 0 {
		return nil, fmt.Errorf("commit timeout must be positive")
	}
	if opts.PointValue.Sign() <= 0 {
		opts.PointValue = decimal.NewFromInt(1)
	}
	if opts.WalkInName == "" {
		opts.WalkInName = "Walk-in"
	}
	return &Service{
		products:  products,
		customers: customers,
		catalog:   catalog,
		resolver:  resolver,
		rates:     rates,
		stock:     stock,
		sales:     saleWriter,
		recorder:  recorder,
		metrics:   checkoutMetrics,
		log:       log,
		opts:      opts,
	}, nil
}

// Open starts a fresh session: empty cart, the active campaign catalog and
// the tax rate both loaded once for the session's lifetime.
func (s *Service) Open(ctx context.Context) (*Session, error) {
	now := time.Now()
	catalog, err := s.catalog.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	session := &Session{
		id:         uuid.New(),
		svc:        s,
		cart:       cart.New(),
		catalog:    catalog,
		calc:       pricing.NewCalculator(s.rates.Load(ctx)),
		payment:    payment.NewCoordinator(),
		createdAt:  now,
		lastActive: now,
		now:        time.Now,
	}
	session.totals = session.calc.Compute(money.Zero, money.Zero, money.Zero)
	return session, nil
}
