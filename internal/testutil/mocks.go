package testutil

import (
	"rekard/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) IsAuthorized(userID int64) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AuthorizeUser(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) EnsureUserExists(userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockDeckRepository is a mock for DeckRepository
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) LoadAll() ([]domain.Deck, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Deck), args.Error(1)
}

func (m *MockDeckRepository) SaveAll(decks []domain.Deck) error {
	args := m.Called(decks)
	return args.Error(0)
}

// MockStudyStore is a mock for the store side of a study session
type MockStudyStore struct {
	mock.Mock
}

func (m *MockStudyStore) DueCards(deckID string, box domain.Box) []domain.Card {
	args := m.Called(deckID, box)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Card)
}

func (m *MockStudyStore) Apply(cardID, deckID string, j domain.Judgment) bool {
	args := m.Called(cardID, deckID, j)
	return args.Bool(0)
}
