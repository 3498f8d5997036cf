package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"rekard/internal/domain"
)

// ErrCorruptSnapshot is returned when a stored deck collection cannot be decoded
var ErrCorruptSnapshot = errors.New("repository: corrupt deck snapshot")

// UserRepository defines user data operations
type UserRepository interface {
	IsAuthorized(userID int64) (bool, error)
	AuthorizeUser(userID int64) error
	EnsureUserExists(userID int64) error
}

// DeckRepository persists the whole deck collection as one document.
// LoadAll returns (nil, nil) when nothing was saved yet.
type DeckRepository interface {
	LoadAll() ([]domain.Deck, error)
	SaveAll(decks []domain.Deck) error
}

// EncodeDecks serializes a deck collection for storage
func EncodeDecks(decks []domain.Deck) ([]byte, error) {
	if decks == nil {
		decks = []domain.Deck{}
	}
	data, err := json.Marshal(decks)
	if err != nil {
		return nil, fmt.Errorf("encode decks: %w", err)
	}
	return data, nil
}

// DecodeDecks parses a stored deck collection
func DecodeDecks(data []byte) ([]domain.Deck, error) {
	var decks []domain.Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return decks, nil
}
