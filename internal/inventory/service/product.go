package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNothingToSend   = errors.New("no pending products to send")
	ErrAlreadySent     = errors.New("product already sent")
	ErrNotSentYet      = errors.New("product has not been sent")
	ErrNotProductOwner = errors.New("product belongs to another user")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
)

// ProductInput is the caller-supplied data for a new inventory entry.
type ProductInput struct {
	EAN      string
	Name     string
	Color    string
	Voltage  string
	Model    string
	Quantity int64
	Price    *float64
}

// ProductService implements the inventory workflow: entries accumulate on a
// user's pending list, are submitted as a whole against a responsible party's
// PIN, and are later validated one by one by an admin.
type ProductService struct {
	Store        store.Store
	Responsibles *ResponsibleService
}

// Create adds an entry to the caller's pending list. An unsent entry with the
// same EAN is merged instead: quantities add up and the entry timestamp moves
// forward.
func (s *ProductService) Create(ctx context.Context, userID int64, in ProductInput) (domain.Product, error) {
	l := slogx.FromContext(ctx)

	ean, err := domain.ValidateEAN(in.EAN)
	if err != nil {
		return domain.Product{}, err
	}
	name, err := domain.ValidateProductName(in.Name)
	if err != nil {
		return domain.Product{}, err
	}
	// Zero is a valid count (item seen, none on hand); only negatives are
	// rejected.
	if in.Quantity < 0 {
		return domain.Product{}, ErrInvalidQuantity
	}

	now := time.Now().UTC()

	existing, err := s.Store.Products().GetUnsentByEANAndUser(ctx, ean, userID)
	switch {
	case err == nil:
		affected, err := s.Store.Products().AddQuantity(ctx, existing.ID, in.Quantity, now)
		if err != nil {
			return domain.Product{}, err
		}
		if affected == 0 {
			// Row was sent or deleted between lookup and merge; fall
			// through to a fresh insert.
			break
		}
		merged, err := s.Store.Products().GetProductByID(ctx, existing.ID)
		if err != nil {
			return domain.Product{}, err
		}
		l.Info("product merged",
			slog.String("ean", ean), slog.Int64("product_id", merged.ID),
			slog.Int64("quantity", merged.Quantity))
		return merged, nil
	case !errors.Is(err, store.ErrNotFound):
		return domain.Product{}, err
	}

	p := domain.Product{
		EAN:       ean,
		Name:      name,
		Color:     optional(in.Color),
		Voltage:   optional(in.Voltage),
		Model:     optional(in.Model),
		Quantity:  in.Quantity,
		Price:     in.Price,
		UserID:    userID,
		EnteredAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.Store.Products().CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = id

	recordAudit(ctx, s.Store, domain.AuditEntry{
		UserID: &userID, Action: domain.AuditProductCreated,
		TableName: "products", RecordID: &id,
	})
	l.Info("product created", slog.String("ean", ean), slog.Int64("product_id", id))
	return p, nil
}

// List returns the user's entries, optionally only the pending ones.
func (s *ProductService) List(ctx context.Context, userID int64, pendingOnly bool) ([]domain.Product, error) {
	return s.Store.Products().ListByUser(ctx, userID, pendingOnly)
}

// SendList submits every pending entry of the user in one shot. The whole
// list shares a single submission timestamp and records which responsible
// party countersigned it, PIN included.
func (s *ProductService) SendList(ctx context.Context, userID, responsibleID int64, pin string) (int64, error) {
	l := slogx.FromContext(ctx)

	resp, err := s.Responsibles.VerifyPIN(ctx, responsibleID, pin)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrWrongPIN
	}
	if err != nil {
		return 0, err
	}

	sentAt := time.Now().UTC()
	var affected int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		affected, err = tx.Products().MarkSent(ctx, userID, resp.ID, resp.PIN, sentAt)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNothingToSend
		}

		detail := fmt.Sprintf("%d products sent to %s", affected, resp.Name)
		return tx.Audit().Record(ctx, domain.AuditEntry{
			UserID: &userID, Action: domain.AuditListSent, TableName: "products",
			Detail: &detail, CreatedAt: sentAt,
		})
	})
	if err != nil {
		return 0, err
	}

	l.Info("list sent",
		slog.Int64("user_id", userID),
		slog.Int64("responsible_id", resp.ID),
		slog.Int64("products", affected))
	return affected, nil
}

// Validate marks one submitted entry as checked by an admin. Entries that
// were never sent cannot be validated.
func (s *ProductService) Validate(ctx context.Context, productID, validatorID int64, notes string) (domain.Product, error) {
	affected, err := s.Store.Products().MarkValidated(ctx, productID, validatorID, optional(notes), time.Now().UTC())
	if err != nil {
		return domain.Product{}, err
	}
	if affected == 0 {
		// Distinguish a missing row from an unsent one for the caller.
		p, err := s.Store.Products().GetProductByID(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, ErrProductNotFound
		}
		if err != nil {
			return domain.Product{}, err
		}
		if !p.Sent {
			return domain.Product{}, ErrNotSentYet
		}
		if p.Validated {
			// Keep the first validator's identity; repeating the call
			// is not an error.
			return p, nil
		}
		return domain.Product{}, ErrProductNotFound
	}

	recordAudit(ctx, s.Store, domain.AuditEntry{
		UserID: &validatorID, Action: domain.AuditValidated,
		TableName: "products", RecordID: &productID,
	})
	return s.Store.Products().GetProductByID(ctx, productID)
}

// Delete removes an entry. Owners may delete their own entries while they
// are still pending; admins may delete anything.
func (s *ProductService) Delete(ctx context.Context, productID, callerID int64, callerAdmin bool) error {
	p, err := s.Store.Products().GetProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	if !callerAdmin {
		if p.UserID != callerID {
			return ErrNotProductOwner
		}
		if p.Sent {
			return ErrAlreadySent
		}
	}

	affected, err := s.Store.Products().DeleteProduct(ctx, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	recordAudit(ctx, s.Store, domain.AuditEntry{
		UserID: &callerID, Action: domain.AuditProductDeleted,
		TableName: "products", RecordID: &productID,
	})
	return nil
}

// ListSent returns submitted entries for the admin review screen.
func (s *ProductService) ListSent(ctx context.Context, validatedOnly bool) ([]domain.SentProduct, error) {
	return s.Store.Products().ListSent(ctx, validatedOnly)
}

// SearchSent filters submitted entries by EAN, product name or owner name.
// An empty term returns everything.
func (s *ProductService) SearchSent(ctx context.Context, term string) ([]domain.SentProduct, error) {
	if term == "" {
		return s.Store.Products().ListSent(ctx, false)
	}
	return s.Store.Products().SearchSent(ctx, term)
}

// Stats aggregates the caller's numbers, or the whole system's when userID
// is nil.
func (s *ProductService) Stats(ctx context.Context, userID *int64) (domain.ProductStats, error) {
	return s.Store.Products().Stats(ctx, userID)
}
