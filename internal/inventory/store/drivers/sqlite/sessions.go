package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type sessionsRepo struct {
	r runner
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO user_sessions (id, user_id, ip_address, user_agent, created_at, expires_at, last_activity)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.IPAddress, s.UserAgent, s.CreatedAt, s.ExpiresAt, s.LastActivity,
		)
		return mapConflict(err)
	})
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &s, `
			SELECT id, user_id, ip_address, user_agent, created_at, expires_at, last_activity
			FROM user_sessions WHERE id = ?`, id)
	})
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, lastActivity, expiresAt time.Time) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			UPDATE user_sessions SET last_activity = ?, expires_at = ? WHERE id = ?`,
			lastActivity, expiresAt, id,
		)
		return err
	})
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, id)
		return err
	})
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < ?`, now)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}
