package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"

	"github.com/stretchr/testify/require"
)

func newProductFixture(t *testing.T) (store.Store, *ProductService, *BootstrapService) {
	t.Helper()

	st, _ := newTestStore(t)
	boot := &BootstrapService{Store: st}
	require.NoError(t, boot.Run(context.Background()))

	products := &ProductService{
		Store:        st,
		Responsibles: &ResponsibleService{Store: st},
	}
	return st, products, boot
}

func firstResponsible(t *testing.T, st store.Store) domain.Responsible {
	t.Helper()

	list, err := st.Responsibles().ListResponsibles(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func TestProductCreateMergesPendingDuplicates(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "ana")

	first, err := products.Create(ctx, userID, ProductInput{
		EAN: "7891234567895", Name: "Liquidificador 600W", Quantity: 3,
	})
	require.NoError(t, err)

	// Same EAN while pending merges instead of inserting.
	merged, err := products.Create(ctx, userID, ProductInput{
		EAN: "789.1234.567-895", Name: "Liquidificador 600W", Quantity: 2,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, merged.ID)
	require.Equal(t, int64(5), merged.Quantity)

	list, err := products.List(ctx, userID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	t.Run("validation failures", func(t *testing.T) {
		_, err := products.Create(ctx, userID, ProductInput{EAN: "123", Name: "x y", Quantity: 1})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)

		_, err = products.Create(ctx, userID, ProductInput{EAN: "12345678", Name: "a", Quantity: 1})
		require.ErrorAs(t, err, &verr)

		_, err = products.Create(ctx, userID, ProductInput{EAN: "12345678", Name: "ok name", Quantity: -1})
		require.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("zero quantity is a valid count", func(t *testing.T) {
		p, err := products.Create(ctx, userID, ProductInput{
			EAN: "12345670", Name: "Item Esgotado", Quantity: 0,
		})
		require.NoError(t, err)
		require.Zero(t, p.Quantity)
	})
}

func TestSendList(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "bia")
	resp := firstResponsible(t, st)

	_, err := products.Create(ctx, userID, ProductInput{EAN: "12345678", Name: "Produto A", Quantity: 1})
	require.NoError(t, err)
	_, err = products.Create(ctx, userID, ProductInput{EAN: "7891234567895", Name: "Produto B", Quantity: 2})
	require.NoError(t, err)

	t.Run("wrong pin leaves the list untouched", func(t *testing.T) {
		_, err := products.SendList(ctx, userID, resp.ID, "0000")
		require.ErrorIs(t, err, ErrWrongPIN)

		pending, err := products.List(ctx, userID, true)
		require.NoError(t, err)
		require.Len(t, pending, 2)
	})

	t.Run("unknown responsible is a pin failure", func(t *testing.T) {
		_, err := products.SendList(ctx, userID, 9999, "0000")
		require.ErrorIs(t, err, ErrWrongPIN)
	})

	t.Run("correct pin sends everything at once", func(t *testing.T) {
		sent, err := products.SendList(ctx, userID, resp.ID, resp.PIN)
		require.NoError(t, err)
		require.Equal(t, int64(2), sent)

		pending, err := products.List(ctx, userID, true)
		require.NoError(t, err)
		require.Empty(t, pending)

		all, err := products.ListSent(ctx, false)
		require.NoError(t, err)
		require.Len(t, all, 2)
		// Whole submission shares one timestamp and responsible.
		require.NotNil(t, all[0].SentAt)
		require.NotNil(t, all[1].SentAt)
		require.Equal(t, *all[0].SentAt, *all[1].SentAt)
		require.Equal(t, resp.Name, *all[0].ResponsibleName)
	})

	t.Run("empty list reports nothing to send", func(t *testing.T) {
		_, err := products.SendList(ctx, userID, resp.ID, resp.PIN)
		require.ErrorIs(t, err, ErrNothingToSend)
	})
}

func TestValidate(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "caio")
	admin, err := st.Users().GetUserByName(ctx, "admin")
	require.NoError(t, err)
	resp := firstResponsible(t, st)

	pending, err := products.Create(ctx, userID, ProductInput{EAN: "12345678", Name: "Produto A", Quantity: 1})
	require.NoError(t, err)

	t.Run("pending rows cannot be validated", func(t *testing.T) {
		_, err := products.Validate(ctx, pending.ID, admin.ID, "")
		require.ErrorIs(t, err, ErrNotSentYet)
	})

	t.Run("missing rows are reported as such", func(t *testing.T) {
		_, err := products.Validate(ctx, 99999, admin.ID, "")
		require.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("sent rows record the validator", func(t *testing.T) {
		_, err := products.SendList(ctx, userID, resp.ID, resp.PIN)
		require.NoError(t, err)

		validated, err := products.Validate(ctx, pending.ID, admin.ID, "conferido")
		require.NoError(t, err)
		require.True(t, validated.Validated)
		require.NotNil(t, validated.ValidatorID)
		require.Equal(t, admin.ID, *validated.ValidatorID)
		require.NotNil(t, validated.Notes)
		require.Equal(t, "conferido", *validated.Notes)
	})

	t.Run("repeating keeps the first validator", func(t *testing.T) {
		second := registerTestUser(t, auth, "outra_admin")

		again, err := products.Validate(ctx, pending.ID, second, "")
		require.NoError(t, err)
		require.NotNil(t, again.ValidatorID)
		require.Equal(t, admin.ID, *again.ValidatorID)
	})
}

func TestDeleteAuthorization(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	owner := registerTestUser(t, auth, "dona")
	intruder := registerTestUser(t, auth, "outro")
	admin, err := st.Users().GetUserByName(ctx, "admin")
	require.NoError(t, err)
	resp := firstResponsible(t, st)

	p, err := products.Create(ctx, owner, ProductInput{EAN: "12345678", Name: "Produto A", Quantity: 1})
	require.NoError(t, err)

	t.Run("only the owner may delete a pending row", func(t *testing.T) {
		require.ErrorIs(t, products.Delete(ctx, p.ID, intruder, false), ErrNotProductOwner)
		require.NoError(t, products.Delete(ctx, p.ID, owner, false))
	})

	t.Run("owners cannot delete sent rows, admins can", func(t *testing.T) {
		p, err := products.Create(ctx, owner, ProductInput{EAN: "12345670", Name: "Produto B", Quantity: 1})
		require.NoError(t, err)
		_, err = products.SendList(ctx, owner, resp.ID, resp.PIN)
		require.NoError(t, err)

		require.ErrorIs(t, products.Delete(ctx, p.ID, owner, false), ErrAlreadySent)
		require.NoError(t, products.Delete(ctx, p.ID, admin.ID, true))
	})

	t.Run("missing rows", func(t *testing.T) {
		require.ErrorIs(t, products.Delete(ctx, 99999, admin.ID, true), ErrProductNotFound)
	})
}

func TestStatsAndSearch(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "eva")
	resp := firstResponsible(t, st)

	_, err := products.Create(ctx, userID, ProductInput{EAN: "12345678", Name: "Ventilador Preto", Quantity: 4})
	require.NoError(t, err)
	_, err = products.Create(ctx, userID, ProductInput{EAN: "7891234567895", Name: "Cafeteira Inox", Quantity: 1})
	require.NoError(t, err)
	_, err = products.SendList(ctx, userID, resp.ID, resp.PIN)
	require.NoError(t, err)

	stats, err := products.Stats(ctx, &userID)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(2), stats.Sent)
	require.Equal(t, int64(5), stats.TotalQuantity)
	require.InDelta(t, 100.0, stats.SendRate, 0.001)
	require.Zero(t, stats.Pending)

	byName, err := products.SearchSent(ctx, "Cafeteira")
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byOwner, err := products.SearchSent(ctx, "eva")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	everything, err := products.SearchSent(ctx, "")
	require.NoError(t, err)
	require.Len(t, everything, 2)
}
