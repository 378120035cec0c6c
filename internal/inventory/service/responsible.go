package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
)

var ErrWrongPIN = errors.New("responsible PIN does not match")

// ResponsibleService reads the parties allowed to countersign submitted lists
// and checks their PINs.
type ResponsibleService struct {
	Store store.Store
}

// List returns the active responsible parties ordered by name.
func (s *ResponsibleService) List(ctx context.Context) ([]domain.Responsible, error) {
	return s.Store.Responsibles().ListResponsibles(ctx)
}

// VerifyPIN confirms that the given responsible exists and owns the PIN.
func (s *ResponsibleService) VerifyPIN(ctx context.Context, id int64, pin string) (domain.Responsible, error) {
	r, err := s.Store.Responsibles().GetResponsibleByID(ctx, id)
	if err != nil {
		return domain.Responsible{}, err
	}
	if r.PIN != pin {
		return domain.Responsible{}, ErrWrongPIN
	}
	return r, nil
}
