package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrtime/internal/auth"
	"hrtime/internal/domain/identity"
	"hrtime/internal/platform/config"
)

// Seed provisions the bootstrap HR account when configured. It is idempotent:
// an existing user with the configured email is left untouched.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if strings.TrimSpace(cfg.SeedHREmail) == "" || strings.TrimSpace(cfg.SeedHRPassword) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", cfg.SeedHREmail).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedHRPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, full_name, password_hash, role, is_active, annual_days, available_days)
    VALUES ($1, $2, $3, $4, true, $5, $5)
  `, cfg.SeedHREmail, cfg.SeedHRName, hash, identity.RoleHR, cfg.DefaultAnnualDays)
	return err
}
