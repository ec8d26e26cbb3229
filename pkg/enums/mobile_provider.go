package enums

import "fmt"

// MobileProvider identifies the mobile-money operator confirming a payment.
type MobileProvider string

const (
	MobileProviderMpesa MobileProvider = "mpesa"
	MobileProviderEmola MobileProvider = "emola"
)

var validMobileProviders = []MobileProvider{
	MobileProviderMpesa,
	MobileProviderEmola,
}

// String implements fmt.Stringer.
func (m MobileProvider) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MobileProvider.
func (m MobileProvider) IsValid() bool {
	for _, candidate := range validMobileProviders {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMobileProvider converts raw input into a MobileProvider.
func ParseMobileProvider(value string) (MobileProvider, error) {
	for _, candidate := range validMobileProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mobile provider %q", value)
}
