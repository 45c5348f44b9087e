package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/otel"
)

const userColumns = `id, name, email, password_hash, profile_image_url, role, department, created_at, updated_at`

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u          model.User
		role       string
		department *string
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.ProfileImageURL,
		&role,
		&department,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	if department != nil {
		d := model.Department(*department)
		u.Department = &d
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func departmentParam(d *model.Department) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

// Create inserts u and fills in its id and timestamps.
// A taken email yields ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (name, email, password_hash, profile_image_url, role, department)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := otel.DB(ctx, "INSERT", "users", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query,
			u.Name,
			u.Email,
			u.PasswordHash,
			u.ProfileImageURL,
			string(u.Role),
			departmentParam(u.Department),
		).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("Failed to insert user", zap.String("email", u.Email), zap.Error(err))
		return fmt.Errorf("insert user: %w", err)
	}

	r.logger.Info("User created", zap.Int("user_id", u.ID), zap.String("role", string(u.Role)))
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u *model.User
	err := otel.DB(ctx, "SELECT", "users", query, func(ctx context.Context) error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var u *model.User
	err := otel.DB(ctx, "SELECT", "users", query, func(ctx context.Context) error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, query, email))
		return err
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	return u, nil
}

// FindByIDs returns the users among ids that exist, in no particular order.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []int) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	var users []model.User
	err := otel.DB(ctx, "SELECT", "users", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, ids)
		if err != nil {
			return err
		}
		users, err = collectUsers(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	return users, nil
}

// FindInDepartment returns the users among ids that belong to department.
func (r *UserRepository) FindInDepartment(ctx context.Context, ids []int, department model.Department) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) AND department = $2`

	var users []model.User
	err := otel.DB(ctx, "SELECT", "users", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, ids, string(department))
		if err != nil {
			return err
		}
		users, err = collectUsers(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find users in department: %w", err)
	}
	return users, nil
}

// ListMembers returns every member-role user of department ordered by name.
func (r *UserRepository) ListMembers(ctx context.Context, department model.Department) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND department = $2 ORDER BY name, id`

	var users []model.User
	err := otel.DB(ctx, "SELECT", "users", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, string(model.RoleMember), string(department))
		if err != nil {
			return err
		}
		users, err = collectUsers(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return users, nil
}

// Update writes the editable profile fields of u and refreshes UpdatedAt.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	query := `
        UPDATE users
        SET name = $1, email = $2, password_hash = $3, profile_image_url = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at
    `
	err := otel.DB(ctx, "UPDATE", "users", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, u.ProfileImageURL, u.ID).Scan(&u.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return notFoundOr(err)
	}
	return nil
}

// Delete removes the user and strips its id from every task assignment in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM users WHERE id = $1`
	unassign := `UPDATE tasks SET assigned_to = array_remove(assigned_to, $1), updated_at = NOW() WHERE $1 = ANY(assigned_to)`

	var unassigned int64
	err := otel.DB(ctx, "DELETE", "users", query, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, unassign, id)
			if err != nil {
				return fmt.Errorf("unassign tasks: %w", err)
			}
			unassigned = tag.RowsAffected()

			tag, err = tx.Exec(ctx, query, id)
			if err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrNotFound
			}
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error("Failed to delete user", zap.Int("user_id", id), zap.Error(err))
		}
		return err
	}

	r.logger.Info("User deleted",
		zap.Int("user_id", id),
		zap.Int64("tasks_unassigned", unassigned),
	)
	return nil
}
