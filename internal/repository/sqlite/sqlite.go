package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"rekard/internal/domain"
	"rekard/internal/repository"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY,
    authorized_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- One row per store key holding the whole deck collection as JSON.
CREATE TABLE IF NOT EXISTS deck_snapshots (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens the database at dsn and ensures the schema exists.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// DeckRepo implements repository.DeckRepository for SQLite.
type DeckRepo struct {
	db  *sql.DB
	key string
}

// NewDeckRepo creates a deck repository storing its snapshot under key.
func NewDeckRepo(db *sql.DB, key string) *DeckRepo {
	return &DeckRepo{db: db, key: key}
}

// LoadAll returns the stored deck collection, or nil if none was saved.
func (r *DeckRepo) LoadAll() ([]domain.Deck, error) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM deck_snapshots WHERE key = ?`, r.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", r.key, err)
	}
	return repository.DecodeDecks([]byte(payload))
}

// SaveAll overwrites the stored snapshot with decks.
func (r *DeckRepo) SaveAll(decks []domain.Deck) error {
	payload, err := repository.EncodeDecks(decks)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO deck_snapshots (key, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
	`, r.key, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", r.key, err)
	}
	return nil
}

// UserRepo implements repository.UserRepository for SQLite.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// IsAuthorized reports whether the user passed the bot password.
func (r *UserRepo) IsAuthorized(userID int64) (bool, error) {
	var authorizedAt sql.NullString
	err := r.db.QueryRow(`SELECT authorized_at FROM users WHERE user_id = ?`, userID).Scan(&authorizedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check authorization for %d: %w", userID, err)
	}
	return authorizedAt.Valid, nil
}

// AuthorizeUser stamps the user as authorized, creating the row if needed.
func (r *UserRepo) AuthorizeUser(userID int64) error {
	_, err := r.db.Exec(`
		INSERT INTO users (user_id, authorized_at)
		VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET authorized_at = COALESCE(users.authorized_at, CURRENT_TIMESTAMP)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to authorize user %d: %w", userID, err)
	}
	return nil
}

// EnsureUserExists creates an unauthorized user row if absent.
func (r *UserRepo) EnsureUserExists(userID int64) error {
	_, err := r.db.Exec(`INSERT INTO users (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}
