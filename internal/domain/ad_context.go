package domain

import "time"

// AdContext holds the product facts an admin configured for one Instagram account
type AdContext struct {
	ID               string    `json:"id" db:"id"`
	TargetIGUserID   string    `json:"target_ig_user_id" db:"target_ig_user_id"`
	ProductName      string    `json:"product_name" db:"product_name"`
	USPText          string    `json:"usp_text" db:"usp_text"`
	SalesLink        string    `json:"sales_link" db:"sales_link"`
	DiscountCode     string    `json:"discount_code" db:"discount_code"`
	RequiredKeywords []string  `json:"required_keywords" db:"required_keywords"`
	BannedKeywords   []string  `json:"banned_keywords" db:"banned_keywords"`
	ToneNotes        string    `json:"tone_notes" db:"tone_notes"`
	UpdatedByAdminID string    `json:"updated_by_admin_id" db:"updated_by_admin_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
