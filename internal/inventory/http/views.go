package http

import (
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

// Response shapes. Domain records are never serialized directly; views keep
// secrets (hashes, salts, PINs) off the wire.

type userResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     *string    `json:"email,omitempty"`
	Admin     bool       `json:"admin"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Admin:     u.Admin,
		LastLogin: u.LastLogin,
	}
}

type productResponse struct {
	ID          int64      `json:"id"`
	EAN         string     `json:"ean"`
	Name        string     `json:"name"`
	Color       *string    `json:"color,omitempty"`
	Voltage     *string    `json:"voltage,omitempty"`
	Model       *string    `json:"model,omitempty"`
	Quantity    int64      `json:"quantity"`
	Price       *float64   `json:"price,omitempty"`
	UserID      int64      `json:"user_id"`
	EnteredAt   time.Time  `json:"entered_at"`
	Sent        bool       `json:"sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	Validated   bool       `json:"validated"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		EAN:         p.EAN,
		Name:        p.Name,
		Color:       p.Color,
		Voltage:     p.Voltage,
		Model:       p.Model,
		Quantity:    p.Quantity,
		Price:       p.Price,
		UserID:      p.UserID,
		EnteredAt:   p.EnteredAt,
		Sent:        p.Sent,
		SentAt:      p.SentAt,
		Validated:   p.Validated,
		ValidatedAt: p.ValidatedAt,
		Notes:       p.Notes,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}

type sentProductResponse struct {
	productResponse

	UserName        string  `json:"user_name"`
	ValidatorName   *string `json:"validator_name,omitempty"`
	ResponsibleName *string `json:"responsible_name,omitempty"`
}

func toSentProductResponses(products []domain.SentProduct) []sentProductResponse {
	out := make([]sentProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, sentProductResponse{
			productResponse: toProductResponse(p.Product),
			UserName:        p.UserName,
			ValidatorName:   p.ValidatorName,
			ResponsibleName: p.ResponsibleName,
		})
	}
	return out
}

// responsibleResponse deliberately omits the PIN.
type responsibleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toResponsibleResponses(responsibles []domain.Responsible) []responsibleResponse {
	out := make([]responsibleResponse, 0, len(responsibles))
	for _, r := range responsibles {
		out = append(out, responsibleResponse{ID: r.ID, Name: r.Name})
	}
	return out
}
