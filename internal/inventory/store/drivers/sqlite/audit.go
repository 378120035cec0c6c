package sqlite

import (
	"context"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type auditRepo struct {
	r runner
}

func (r *auditRepo) Record(ctx context.Context, e domain.AuditEntry) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO audit_log (user_id, action, table_name, record_id, detail, ip_address, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.UserID, e.Action, e.TableName, e.RecordID, e.Detail, e.IPAddress, e.CreatedAt,
		)
		return err
	})
}
