package customers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/enums"
	apperrors "github.com/vendapos/venda-backend/pkg/errors"
)

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS campaigns (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT UNIQUE,
  status TEXT NOT NULL DEFAULT 'active',
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_purchase_amount NUMERIC NOT NULL DEFAULT 0,
  max_discount_amount NUMERIC,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  usage_limit INTEGER,
  per_customer_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS campaign_usages (
  id TEXT PRIMARY KEY,
  campaign_id TEXT NOT NULL,
  customer_id TEXT,
  customer_name TEXT,
  sale_total NUMERIC NOT NULL,
  discount NUMERIC NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedCampaign(t *testing.T, db *gorm.DB, name string, perCustomerLimit *int) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		ID:               uuid.New(),
		Name:             name,
		Status:           enums.CampaignStatusActive,
		DiscountType:     enums.DiscountTypePercentage,
		DiscountValue:    decimal.NewFromInt(10),
		StartsAt:         time.Now().Add(-time.Hour),
		EndsAt:           time.Now().Add(time.Hour),
		PerCustomerLimit: perCustomerLimit,
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func seedCustomer(t *testing.T, db *gorm.DB, code, name string, points int) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		ID:            uuid.New(),
		Code:          code,
		Name:          name,
		LoyaltyPoints: points,
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func TestSearchByNamePhoneAndCode(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)

	ana := seedCustomer(t, db, "C-001", "Ana Macamo", 120)
	phone := "+258841112222"
	joao := &models.Customer{ID: uuid.New(), Code: "C-002", Name: "Joao Sitoe", Phone: &phone}
	require.NoError(t, db.Create(joao).Error)

	byName, err := repo.Search(context.Background(), "macamo")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, ana.ID, byName[0].ID)

	byPhone, err := repo.Search(context.Background(), "8411")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, joao.ID, byPhone[0].ID)

	byCode, err := repo.Search(context.Background(), "c-001")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, ana.ID, byCode[0].ID)

	all, err := repo.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListAnnotatesActiveCampaignCount(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)

	ana := seedCustomer(t, db, "C-001", "Ana Macamo", 0)
	joao := seedCustomer(t, db, "C-002", "Joao Sitoe", 0)

	limit := 1
	capped := seedCampaign(t, db, "first purchase", &limit)
	seedCampaign(t, db, "ten percent", nil)

	expired := seedCampaign(t, db, "old promo", nil)
	require.NoError(t, db.Model(&models.Campaign{}).
		Where("id = ?", expired.ID).
		UpdateColumn("ends_at", time.Now().Add(-time.Minute)).Error)

	// Ana already used the capped campaign once.
	usage := &models.CampaignUsage{
		ID:         uuid.New(),
		CampaignID: capped.ID,
		CustomerID: &ana.ID,
		SaleTotal:  decimal.NewFromInt(500),
		Discount:   decimal.NewFromInt(50),
	}
	require.NoError(t, db.Create(usage).Error)

	listed, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)

	counts := map[uuid.UUID]int{}
	for _, customer := range listed {
		counts[customer.ID] = customer.ActiveCampaigns
	}
	assert.Equal(t, 1, counts[ana.ID], "capped campaign exhausted for Ana")
	assert.Equal(t, 2, counts[joao.ID], "Joao can still use both running campaigns")

	found, err := repo.Search(context.Background(), "sitoe")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 2, found[0].ActiveCampaigns)
}

func TestFindByIDNotFound(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeNotFound, typed.Code())
}

func TestDeductPointsGuardsBalance(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)

	ana := seedCustomer(t, db, "C-001", "Ana Macamo", 100)

	require.NoError(t, repo.DeductPoints(context.Background(), ana.ID, 60))

	err := repo.DeductPoints(context.Background(), ana.ID, 60)
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeInsufficientPoints, typed.Code())

	reloaded, err := repo.FindByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, reloaded.LoyaltyPoints)
}

func TestDeductZeroPointsIsNoop(t *testing.T) {
	db := setupCustomersTestDB(t)
	repo := NewRepository(db)

	ana := seedCustomer(t, db, "C-001", "Ana Macamo", 10)
	require.NoError(t, repo.DeductPoints(context.Background(), ana.ID, 0))

	reloaded, err := repo.FindByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.LoyaltyPoints)
}
