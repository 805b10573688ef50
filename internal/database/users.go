package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/trading-agent/internal/models"
)

// CreateOrGetUser returns the user for the given username, creating it if needed.
// Username is the only identity in the system.
func (db *DB) CreateOrGetUser(username string) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRow(
		`SELECT id, username, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)

	if err == nil {
		return &u, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = db.conn.QueryRow(
		`INSERT INTO users (username) VALUES ($1) RETURNING id, username, created_at`,
		username,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}
