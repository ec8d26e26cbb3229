package enums

import "fmt"

// CampaignStatus tracks the lifecycle of a promotional campaign.
type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusPaused   CampaignStatus = "paused"
	CampaignStatusArchived CampaignStatus = "archived"
)

var validCampaignStatuses = []CampaignStatus{
	CampaignStatusActive,
	CampaignStatusPaused,
	CampaignStatusArchived,
}

// String implements fmt.Stringer.
func (c CampaignStatus) String() string {
	return string(c)
}

// IsActive reports whether campaigns in this status may grant discounts.
func (c CampaignStatus) IsActive() bool {
	return c == CampaignStatusActive
}

// IsTerminal reports whether the status is an end state.
func (c CampaignStatus) IsTerminal() bool {
	return c == CampaignStatusArchived
}

// IsValid reports whether the value is a known CampaignStatus.
func (c CampaignStatus) IsValid() bool {
	for _, candidate := range validCampaignStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCampaignStatus converts raw input into a CampaignStatus.
func ParseCampaignStatus(value string) (CampaignStatus, error) {
	for _, candidate := range validCampaignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign status %q", value)
}
