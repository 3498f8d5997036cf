package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"rekard/internal/domain"
	"rekard/internal/repository"
)

// DeckRepo implements repository.DeckRepository on a single jsonb row
type DeckRepo struct {
	db  *sql.DB
	key string
}

// NewDeckRepo creates a deck repository storing its snapshot under key
func NewDeckRepo(db *sql.DB, key string) *DeckRepo {
	return &DeckRepo{db: db, key: key}
}

// LoadAll returns the stored deck collection, or nil if none was saved
func (r *DeckRepo) LoadAll() ([]domain.Deck, error) {
	var payload []byte
	query := `SELECT payload FROM deck_snapshots WHERE key = $1`
	err := r.db.QueryRow(query, r.key).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", r.key, err)
	}

	return repository.DecodeDecks(payload)
}

// SaveAll overwrites the stored snapshot with decks
func (r *DeckRepo) SaveAll(decks []domain.Deck) error {
	payload, err := repository.EncodeDecks(decks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO deck_snapshots (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	// jsonb takes text; lib/pq would send []byte as bytea
	if _, err := r.db.Exec(query, r.key, string(payload)); err != nil {
		return fmt.Errorf("save snapshot %q: %w", r.key, err)
	}
	return nil
}
