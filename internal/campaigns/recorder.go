package campaigns

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/logger"
)

// UsageWriter is the slice of campaign storage the recorder needs.
type UsageWriter interface {
	CreateUsage(ctx context.Context, usage *models.CampaignUsage) error
	IncrementUsage(ctx context.Context, campaignID uuid.UUID) error
}

// Recorder writes campaign usage after a sale commits. Recording is best
// effort: a failed write never fails the sale, it is logged and dropped.
type Recorder struct {
	usages UsageWriter
	log    *logger.Logger
}

func NewRecorder(usages UsageWriter, log *logger.Logger) (*Recorder, error) {
	if usages == nil {
		return nil, fmt.Errorf("usage writer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Recorder{usages: usages, log: log}, nil
}

// RecordSale appends a ledger row and bumps the usage counter for every
// campaign applied to the sale.
func (r *Recorder) RecordSale(ctx context.Context, applied []Applied, saleTotal decimal.Decimal, customerID *uuid.UUID, customerName *string) {
	var failures error
	for _, a := range applied {
		usage := &models.CampaignUsage{
			CampaignID:   a.CampaignID,
			CustomerID:   customerID,
			CustomerName: customerName,
			SaleTotal:    saleTotal,
			Discount:     a.Discount,
		}
		if err := r.usages.CreateUsage(ctx, usage); err != nil {
			failures = multierr.Append(failures, err)
			continue
		}
		if err := r.usages.IncrementUsage(ctx, a.CampaignID); err != nil {
			failures = multierr.Append(failures, err)
		}
	}
	if failures != nil {
		r.log.Error(ctx, "campaign usage recording failed", failures)
	}
}
