package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrtime/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = "id, email, full_name, password_hash, role, is_active, annual_days, available_days, created_at, updated_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.AnnualDays, &u.AvailableDays, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) Create(ctx context.Context, user User) (User, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, full_name, password_hash, role, is_active, annual_days, available_days)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+userColumns+`
  `, user.Email, user.FullName, user.PasswordHash, user.Role, user.IsActive, user.AnnualDays, user.AvailableDays)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperr.Newf(apperr.KindConflict, "email %s is already registered", user.Email).
				WithDetails(map[string]any{"email": user.Email})
		}
		return User{}, err
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (User, bool, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (User, bool, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

func (s *Store) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT COUNT(1) FROM users WHERE email = $1"
	args := []any{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var count int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) List(ctx context.Context, filters ListUsersFilters, limit, offset int) (UserListResult, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filters.Role != "" {
		args = append(args, filters.Role)
		where += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += fmt.Sprintf(" AND is_active = $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users"+where, args...).Scan(&total); err != nil {
		return UserListResult{}, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT "+userColumns+" FROM users"+where+" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return UserListResult{}, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return UserListResult{}, err
		}
		users = append(users, user)
	}
	return UserListResult{Users: users, Total: total}, rows.Err()
}

func (s *Store) Update(ctx context.Context, user User) (User, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE users
    SET email = $1, full_name = $2, password_hash = $3, role = $4, is_active = $5,
        annual_days = $6, available_days = $7, updated_at = now()
    WHERE id = $8
    RETURNING `+userColumns+`
  `, user.Email, user.FullName, user.PasswordHash, user.Role, user.IsActive, user.AnnualDays, user.AvailableDays, user.ID)

	updated, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperr.Newf(apperr.KindConflict, "email %s is already registered", user.Email).
				WithDetails(map[string]any{"email": user.Email})
		}
		return User{}, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
