package models

import "time"

// Variant is an A/B test arm.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// ParseVariant accepts exactly "A" or "B".
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case VariantA, VariantB:
		return Variant(s), true
	default:
		return "", false
	}
}

// Label is the button text shown for the variant.
func (v Variant) Label() string {
	if v == VariantB {
		return "thanks"
	}
	return "kudos"
}

// ABTestPageView records one render of the test page.
type ABTestPageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Variant   Variant   `gorm:"size:1;not null;index" json:"variant"`
	IPAddress *string   `gorm:"size:45" json:"ip_address"`
	UserAgent *string   `gorm:"type:text" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (ABTestPageView) TableName() string { return "ab_test_page_views" }

// ABTestButtonClick records one click on the test button.
type ABTestButtonClick struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Variant   Variant   `gorm:"size:1;not null;index" json:"variant"`
	IPAddress *string   `gorm:"size:45" json:"ip_address"`
	UserAgent *string   `gorm:"type:text" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (ABTestButtonClick) TableName() string { return "ab_test_button_clicks" }

// ClickTotals is the per-variant click count.
type ClickTotals struct {
	A int64 `json:"click_count_a"`
	B int64 `json:"click_count_b"`
}
