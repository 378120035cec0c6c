package sqlite

import (
	"context"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type responsiblesRepo struct {
	r runner
}

func (r *responsiblesRepo) GetResponsibleByID(ctx context.Context, id int64) (domain.Responsible, error) {
	var resp domain.Responsible
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &resp, `
			SELECT id, name, pin, active, created_at, updated_at
			FROM responsibles WHERE id = ? AND active = 1`, id)
	})
	if err != nil {
		return domain.Responsible{}, mapNotFound(err)
	}
	return resp, nil
}

func (r *responsiblesRepo) ListResponsibles(ctx context.Context) ([]domain.Responsible, error) {
	responsibles := []domain.Responsible{}
	err := r.r.run(ctx, func(q querier) error {
		return q.SelectContext(ctx, &responsibles, `
			SELECT id, name, pin, active, created_at, updated_at
			FROM responsibles WHERE active = 1 ORDER BY name`)
	})
	return responsibles, err
}

func (r *responsiblesRepo) CreateResponsible(ctx context.Context, resp domain.Responsible) (int64, error) {
	var id int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO responsibles (name, pin, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			resp.Name, resp.PIN, resp.Active, resp.CreatedAt, resp.UpdatedAt,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, mapConflict(err)
	}
	return id, nil
}

func (r *responsiblesRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &count, `SELECT COUNT(*) FROM responsibles`)
	})
	return count, err
}
