package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed identities for development.
const (
	SeedAdminUsername = "admin"
	SeedTopicSlug     = "general"
)

// Seed populates the database with initial development data: an admin
// directory entry and one active topic owned by it. It does nothing when
// users already exist.
func Seed(ctx context.Context, db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, nickname, role)
		VALUES ($1, $2, 'admin')
		RETURNING id
	`, SeedAdminUsername, "Admin").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topics (title, slug, user_id, status)
		VALUES ($1, $2, $3, TRUE)
	`, "General", SeedTopicSlug, adminID)
	if err != nil {
		return fmt.Errorf("seed insert topic: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", SeedAdminUsername,
		"id", adminID,
		"topic", SeedTopicSlug,
	)

	return nil
}
