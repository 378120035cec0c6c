package sqlite

import (
	"context"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type systemConfigRepo struct {
	r runner
}

func (r *systemConfigRepo) GetConfig(ctx context.Context, key string) (domain.ConfigEntry, error) {
	var e domain.ConfigEntry
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &e, `
			SELECT key, value, description, updated_at, updated_by
			FROM system_config WHERE key = ?`, key)
	})
	if err != nil {
		return domain.ConfigEntry{}, mapNotFound(err)
	}
	return e, nil
}

func (r *systemConfigRepo) SetConfig(ctx context.Context, e domain.ConfigEntry) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO system_config (key, value, description, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET
				value = excluded.value,
				description = COALESCE(excluded.description, description),
				updated_at = excluded.updated_at,
				updated_by = excluded.updated_by`,
			e.Key, e.Value, e.Description, e.UpdatedAt, e.UpdatedBy,
		)
		return err
	})
}
