package pricing

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendapos/venda-backend/pkg/logger"
)

func TestComputeAppliesDiscountsBeforeTax(t *testing.T) {
	calc := NewCalculator(decimal.NewFromInt(16))

	got := calc.Compute(decimal.NewFromInt(1000), decimal.NewFromInt(100), decimal.NewFromInt(50))
	if !got.TaxableAmount.Equal(decimal.NewFromInt(850)) {
		t.Fatalf("taxable = %s, want 850", got.TaxableAmount)
	}
	if !got.Tax.Equal(decimal.NewFromInt(136)) {
		t.Fatalf("tax = %s, want 136", got.Tax)
	}
	if !got.Total.Equal(decimal.NewFromInt(986)) {
		t.Fatalf("total = %s, want 986", got.Total)
	}
}

func TestComputeNeverGoesNegative(t *testing.T) {
	calc := NewCalculator(decimal.NewFromInt(16))

	got := calc.Compute(decimal.NewFromInt(50), decimal.NewFromInt(40), decimal.NewFromInt(40))
	if !got.TaxableAmount.IsZero() {
		t.Fatalf("taxable = %s, want 0", got.TaxableAmount)
	}
	if !got.Total.IsZero() {
		t.Fatalf("total = %s, want 0", got.Total)
	}
}

func TestComputeRoundsToCents(t *testing.T) {
	calc := NewCalculator(decimal.RequireFromString("16"))

	got := calc.Compute(decimal.RequireFromString("10.05"), decimal.Zero, decimal.Zero)
	if !got.Tax.Equal(decimal.RequireFromString("1.61")) {
		t.Fatalf("tax = %s, want 1.61", got.Tax)
	}
	if !got.Total.Equal(decimal.RequireFromString("11.66")) {
		t.Fatalf("total = %s, want 11.66", got.Total)
	}
}

func TestComputeZeroRate(t *testing.T) {
	calc := NewCalculator(decimal.Zero)

	got := calc.Compute(decimal.NewFromInt(100), decimal.Zero, decimal.Zero)
	if !got.Tax.IsZero() {
		t.Fatalf("tax = %s, want 0", got.Tax)
	}
	if !got.Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("total = %s, want 100", got.Total)
	}
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mustRateLoader(t *testing.T, settings settingsReader, defaultRate decimal.Decimal) *RateLoader {
	t.Helper()
	loader, err := NewRateLoader(settings, defaultRate, testLogger())
	if err != nil {
		t.Fatalf("NewRateLoader: %v", err)
	}
	return loader
}

func TestRateLoaderPrefersStoredValue(t *testing.T) {
	loader := mustRateLoader(t, &fakeSettings{values: map[string]string{TaxRateKey: "18.5"}}, decimal.NewFromInt(16))

	got := loader.Load(context.Background())
	if !got.Equal(decimal.RequireFromString("18.5")) {
		t.Fatalf("rate = %s, want 18.5", got)
	}
}

func TestRateLoaderFallsBackToDefault(t *testing.T) {
	defaultRate := decimal.NewFromInt(16)

	for name, settings := range map[string]*fakeSettings{
		"missing":     {values: map[string]string{}},
		"unparseable": {values: map[string]string{TaxRateKey: "abc"}},
		"negative":    {values: map[string]string{TaxRateKey: "-4"}},
		"storage":     {err: errors.New("connection refused")},
	} {
		loader := mustRateLoader(t, settings, defaultRate)
		if got := loader.Load(context.Background()); !got.Equal(defaultRate) {
			t.Fatalf("%s: rate = %s, want default 16", name, got)
		}
	}
}
