package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/db/models"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/money"
)

// TaxRateKey is the settings key holding the till's tax rate in percent.
const TaxRateKey = "tax_rate_percent"

// SettingsRepository is the gorm-backed key/value store for till settings.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the raw value for key, or gorm.ErrRecordNotFound.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set upserts a setting value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).Save(&setting).Error
}

type settingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// RateLoader resolves the tax rate for a new session: the stored setting
// when present and parseable, otherwise the configured default.
type RateLoader struct {
	settings    settingsReader
	defaultRate decimal.Decimal
	log         *logger.Logger
}

func NewRateLoader(settings settingsReader, defaultRate decimal.Decimal, log *logger.Logger) (*RateLoader, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RateLoader{settings: settings, defaultRate: defaultRate, log: log}, nil
}

// Load returns the tax rate in percent. Storage problems fall back to the
// default rather than blocking the till from opening a sale.
func (l *RateLoader) Load(ctx context.Context) decimal.Decimal {
	raw, err := l.settings.Get(ctx, TaxRateKey)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.log.Error(ctx, "failed to load tax rate setting", err)
		}
		return l.defaultRate
	}
	rate, err := money.FromString(raw)
	if err != nil || rate.IsNegative() {
		l.log.Warn(ctx, "stored tax rate is invalid, using default")
		return l.defaultRate
	}
	return rate
}
