package postgres

import (
	"database/sql"
	"errors"
	"fmt"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// IsAuthorized reports whether the user passed the bot password
func (r *UserRepo) IsAuthorized(userID int64) (bool, error) {
	var authorizedAt sql.NullTime
	query := `SELECT authorized_at FROM users WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&authorizedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check authorization for %d: %w", userID, err)
	}

	return authorizedAt.Valid, nil
}

// AuthorizeUser stamps the user as authorized, creating the row if needed
func (r *UserRepo) AuthorizeUser(userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized_at)
		VALUES ($1, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET authorized_at = COALESCE(users.authorized_at, NOW())
	`
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("authorize user %d: %w", userID, err)
	}
	return nil
}

// EnsureUserExists creates an unauthorized user row if absent
func (r *UserRepo) EnsureUserExists(userID int64) error {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}
