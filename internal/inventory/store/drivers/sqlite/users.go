package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
)

type usersRepo struct {
	r runner
}

const userColumns = `id, name, email, password_hash, salt, admin, active,
	login_attempts, locked_until, last_login, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &u,
			`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByName(ctx context.Context, name string) (domain.User, error) {
	var u domain.User
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &u,
			`SELECT `+userColumns+` FROM users WHERE name = ? AND active = 1`, name)
	})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &u,
			`SELECT `+userColumns+` FROM users WHERE email = ? AND active = 1`, email)
	})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	var id int64
	err := r.r.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO users (name, email, password_hash, salt, admin, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Name, u.Email, u.PasswordHash, u.Salt, u.Admin, u.Active, u.CreatedAt, u.UpdatedAt,
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

func (r *usersRepo) UpdateLoginState(
	ctx context.Context,
	id int64,
	attempts int,
	lockedUntil, lastLogin *time.Time,
) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			UPDATE users
			SET login_attempts = ?, locked_until = ?, last_login = COALESCE(?, last_login), updated_at = ?
			WHERE id = ?`,
			attempts, lockedUntil, lastLogin, time.Now().UTC(), id,
		)
		return err
	})
}

func (r *usersRepo) UpdateCredentials(ctx context.Context, id int64, hash, salt string) error {
	return r.r.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			UPDATE users SET password_hash = ?, salt = ?, updated_at = ? WHERE id = ?`,
			hash, salt, time.Now().UTC(), id,
		)
		return err
	})
}

func (r *usersRepo) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.r.run(ctx, func(q querier) error {
		return q.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM users WHERE admin = 1 AND active = 1`)
	})
	return count, err
}
