package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type productsRepo struct {
	r runner
}

const productColumns = `p.id, p.ean, p.name, p.color, p.voltage, p.model, p.quantity,
	p.price, p.user_id, p.entered_at, p.sent, p.sent_at, p.validated, p.validator_id,
	p.validated_at, p.responsible_id, p.responsible_pin, p.notes, p.created_at, p.updated_at`

// sentProductQuery joins the display names admins need. Validator and
// responsible are outer joins; both are null until the row is processed.
const sentProductQuery = `
	SELECT ` + productColumns + `,
		u.name AS user_name,
		v.name AS validator_name,
		r.name AS responsible_name
	FROM products p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN users v ON v.id = p.validator_id
	LEFT JOIN responsibles r ON r.id = p.responsible_id
	WHERE p.sent = 1`

func (r *productsRepo) GetProductByID(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &p,
			`SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	})
	if err != nil {
		return domain.Product{}, mapNotFound(err)
	}
	return p, nil
}

func (r *productsRepo) GetUnsentByEANAndUser(ctx context.Context, ean string, userID int64) (domain.Product, error) {
	var p domain.Product
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &p, `
			SELECT `+productColumns+` FROM products p
			WHERE p.ean = ? AND p.user_id = ? AND p.sent = 0
			ORDER BY p.id LIMIT 1`,
			ean, userID)
	})
	if err != nil {
		return domain.Product{}, mapNotFound(err)
	}
	return p, nil
}

func (r *productsRepo) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	var id int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO products (ean, name, color, voltage, model, quantity, price,
				user_id, entered_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.EAN, p.Name, p.Color, p.Voltage, p.Model, p.Quantity, p.Price,
			p.UserID, p.EnteredAt, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *productsRepo) AddQuantity(ctx context.Context, id, qty int64, enteredAt time.Time) (int64, error) {
	var affected int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity + ?, entered_at = ?, updated_at = ?
			WHERE id = ? AND sent = 0`,
			qty, enteredAt, enteredAt, id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (r *productsRepo) ListByUser(ctx context.Context, userID int64, pendingOnly bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.user_id = ?`
	if pendingOnly {
		query += ` AND p.sent = 0`
	}
	query += ` ORDER BY p.entered_at DESC, p.id DESC`

	products := []domain.Product{}
	err := r.r.run(ctx, func(q querier) error {
		return q.SelectContext(ctx, &products, query, userID)
	})
	return products, err
}

func (r *productsRepo) ListSent(ctx context.Context, validatedOnly bool) ([]domain.SentProduct, error) {
	query := sentProductQuery
	if validatedOnly {
		query += ` AND p.validated = 1`
	}
	query += ` ORDER BY p.sent_at DESC, p.id DESC`

	products := []domain.SentProduct{}
	err := r.r.run(ctx, func(q querier) error {
		return q.SelectContext(ctx, &products, query)
	})
	return products, err
}

func (r *productsRepo) SearchSent(ctx context.Context, term string) ([]domain.SentProduct, error) {
	pattern := "%" + term + "%"
	query := sentProductQuery + `
		AND (p.ean LIKE ? OR p.name LIKE ? OR u.name LIKE ?)
		ORDER BY p.sent_at DESC, p.id DESC`

	products := []domain.SentProduct{}
	err := r.r.run(ctx, func(q querier) error {
		return q.SelectContext(ctx, &products, query, pattern, pattern, pattern)
	})
	return products, err
}

func (r *productsRepo) MarkSent(ctx context.Context, userID, responsibleID int64, pin string, sentAt time.Time) (int64, error) {
	var affected int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE products
			SET sent = 1, sent_at = ?, responsible_id = ?, responsible_pin = ?, updated_at = ?
			WHERE user_id = ? AND sent = 0`,
			sentAt, responsibleID, pin, sentAt, userID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (r *productsRepo) MarkValidated(ctx context.Context, id, validatorID int64, notes *string, validatedAt time.Time) (int64, error) {
	var affected int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE products
			SET validated = 1, validator_id = ?, validated_at = ?,
				notes = COALESCE(?, notes), updated_at = ?
			WHERE id = ? AND sent = 1 AND validated = 0`,
			validatorID, validatedAt, notes, validatedAt, id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (r *productsRepo) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (r *productsRepo) Stats(ctx context.Context, userID *int64) (domain.ProductStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN sent = 1 THEN 1 ELSE 0 END), 0) AS sent,
			COALESCE(SUM(CASE WHEN validated = 1 THEN 1 ELSE 0 END), 0) AS validated,
			COALESCE(SUM(quantity), 0) AS total_quantity
		FROM products`

	args := []any{}
	if userID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *userID)
	}

	var row struct {
		Total         int64 `db:"total"`
		Sent          int64 `db:"sent"`
		Validated     int64 `db:"validated"`
		TotalQuantity int64 `db:"total_quantity"`
	}
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		return domain.ProductStats{}, err
	}

	stats := domain.ProductStats{
		Total:         row.Total,
		Sent:          row.Sent,
		Validated:     row.Validated,
		TotalQuantity: row.TotalQuantity,
	}
	stats.Finalize()
	return stats, nil
}
