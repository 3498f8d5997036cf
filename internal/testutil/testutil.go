package testutil

import (
	"sync"
	"time"

	"rekard/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestCard creates a card in box with an optional review time
func NewTestCard(id string, box domain.Box, reviewed *time.Time) domain.Card {
	card := domain.Card{
		ID:       id,
		Question: "question " + id,
		Answer:   "answer " + id,
		Box:      box,
	}
	if reviewed != nil {
		card.MarkReviewed(*reviewed)
	}
	return card
}

// NewTestDeck creates a deck holding cards in the given order
func NewTestDeck(id string, cards ...domain.Card) domain.Deck {
	if cards == nil {
		cards = []domain.Card{}
	}
	return domain.Deck{
		ID:    id,
		Name:  "deck " + id,
		Icon:  domain.DefaultDeckIcon,
		Color: domain.Color{Red: 0.5, Green: 0.5, Blue: 0.5, Opacity: 1},
		Cards: cards,
	}
}

// At returns a pointer to a fixed UTC time offset by minutes, for review stamps
func At(minutes int) *time.Time {
	t := time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return &t
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock starting at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// MemoryDeckRepository keeps the last saved collection in memory
type MemoryDeckRepository struct {
	mu    sync.Mutex
	decks []domain.Deck
	Saves int
	Err   error // returned by SaveAll when set
}

// NewMemoryDeckRepository creates a repository preloaded with decks
func NewMemoryDeckRepository(decks ...domain.Deck) *MemoryDeckRepository {
	if len(decks) == 0 {
		return &MemoryDeckRepository{}
	}
	return &MemoryDeckRepository{decks: domain.CloneDecks(decks)}
}

func (r *MemoryDeckRepository) LoadAll() ([]domain.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decks == nil {
		return nil, nil
	}
	return domain.CloneDecks(r.decks), nil
}

func (r *MemoryDeckRepository) SaveAll(decks []domain.Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Saves++
	if r.Err != nil {
		return r.Err
	}
	r.decks = domain.CloneDecks(decks)
	return nil
}

// Saved returns a copy of the last saved collection
func (r *MemoryDeckRepository) Saved() []domain.Deck {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.CloneDecks(r.decks)
}
