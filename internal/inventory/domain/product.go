package domain

import (
	"strings"
	"time"
)

// Product is one inventory line item. A row is owned by the user who entered
// it until it is sent; validation attaches a second user for audit.
type Product struct {
	ID             int64      `db:"id"`
	EAN            string     `db:"ean"`
	Name           string     `db:"name"`
	Color          *string    `db:"color"`
	Voltage        *string    `db:"voltage"`
	Model          *string    `db:"model"`
	Quantity       int64      `db:"quantity"`
	Price          *float64   `db:"price"`
	UserID         int64      `db:"user_id"`
	EnteredAt      time.Time  `db:"entered_at"`
	Sent           bool       `db:"sent"`
	SentAt         *time.Time `db:"sent_at"`
	Validated      bool       `db:"validated"`
	ValidatorID    *int64     `db:"validator_id"`
	ValidatedAt    *time.Time `db:"validated_at"`
	ResponsibleID  *int64     `db:"responsible_id"`
	ResponsiblePIN *string    `db:"responsible_pin"`
	Notes          *string    `db:"notes"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// SentProduct is a product joined with the display names admins need when
// reviewing submitted lists.
type SentProduct struct {
	Product

	UserName        string  `db:"user_name"`
	ValidatorName   *string `db:"validator_name"`
	ResponsibleName *string `db:"responsible_name"`
}

// ProductStats summarises a user's rows, or the whole table when computed
// globally. Rates are percentages with the denominator floored at 1.
type ProductStats struct {
	Total          int64   `json:"total_products"`
	Sent           int64   `json:"sent_products"`
	Validated      int64   `json:"validated_products"`
	Pending        int64   `json:"pending_products"`
	TotalQuantity  int64   `json:"total_quantity"`
	SendRate       float64 `json:"send_rate"`
	ValidationRate float64 `json:"validation_rate"`
}

// Finalize derives pending and the guarded percentages from the raw counts.
func (s *ProductStats) Finalize() {
	s.Pending = s.Total - s.Sent
	s.SendRate = roundRate(s.Sent, s.Total)
	s.ValidationRate = roundRate(s.Validated, s.Sent)
}

func roundRate(part, whole int64) float64 {
	if whole < 1 {
		whole = 1
	}
	return float64(int64(float64(part)/float64(whole)*100*100+0.5)) / 100
}

// NormalizeEAN strips everything but digits.
func NormalizeEAN(ean string) string {
	var b strings.Builder
	for _, c := range ean {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ValidEANLengths are the accepted normalized code lengths: EAN-8, UPC-A,
// EAN-13 and GTIN-14.
var ValidEANLengths = map[int]bool{8: true, 12: true, 13: true, 14: true}

// ValidateEAN normalizes and checks the code, returning the normalized form.
func ValidateEAN(ean string) (string, error) {
	normalized := NormalizeEAN(ean)
	if !ValidEANLengths[len(normalized)] {
		return "", validationErr("ean", "EAN must have 8, 12, 13 or 14 digits")
	}
	return normalized, nil
}

// ValidateProductName requires at least 2 characters after trimming.
func ValidateProductName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return "", validationErr("name", "product name must have at least 2 characters")
	}
	return trimmed, nil
}
