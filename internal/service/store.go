package service

import (
	"errors"
	"slices"
	"sync"
	"time"

	"rekard/internal/domain"
	"rekard/internal/repository"

	"go.uber.org/zap"
)

// StoreOption configures a DeckStore
type StoreOption func(*DeckStore)

// WithClock overrides the time source used for review timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *DeckStore) {
		s.now = now
	}
}

// DeckStore owns the deck collection and is its only mutator.
// Every mutation is persisted before the method returns; readers get copies.
type DeckStore struct {
	repo   repository.DeckRepository
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	decks []domain.Deck

	subMu   sync.Mutex
	subs    map[int]func([]domain.Deck)
	nextSub int
}

// NewDeckStore creates an empty store backed by repo. Call Load to read saved decks.
func NewDeckStore(repo repository.DeckRepository, logger *zap.Logger, opts ...StoreOption) *DeckStore {
	s := &DeckStore{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]func([]domain.Deck)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collection with the persisted one.
// Missing or corrupt data leaves the store empty.
func (s *DeckStore) Load() {
	decks, err := s.repo.LoadAll()
	if err != nil {
		if errors.Is(err, repository.ErrCorruptSnapshot) {
			s.logger.Warn("Stored decks are corrupt, starting empty", zap.Error(err))
		} else {
			s.logger.Error("Failed to load decks, starting empty", zap.Error(err))
		}
		decks = nil
	}

	for i := range decks {
		for j := range decks[i].Cards {
			decks[i].Cards[j].Box = decks[i].Cards[j].Box.Clamp()
		}
	}

	s.mu.Lock()
	s.decks = decks
	s.mu.Unlock()

	s.logger.Info("Decks loaded", zap.Int("decks", len(decks)))
	s.notify()
}

// Decks returns a copy of the whole collection
func (s *DeckStore) Decks() []domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneDecks(s.decks)
}

// Deck returns a copy of the deck with the given ID
func (s *DeckStore) Deck(deckID string) (domain.Deck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.deckIndex(deckID)
	if idx < 0 {
		return domain.Deck{}, false
	}
	return s.decks[idx].Clone(), true
}

// FindCard returns a copy of the card with the given ID and the ID of its deck
func (s *DeckStore) FindCard(cardID string) (domain.Card, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.decks {
		if i := d.CardIndex(cardID); i >= 0 {
			return d.Cards[i].Clone(), d.ID, true
		}
	}
	return domain.Card{}, "", false
}

// AddDeck inserts a deck at the front of the collection
func (s *DeckStore) AddDeck(deck domain.Deck) {
	s.update(func() bool {
		s.decks = slices.Insert(s.decks, 0, deck.Clone())
		return true
	})
}

// UpdateDeck replaces the deck with the same ID. Unknown IDs are ignored.
func (s *DeckStore) UpdateDeck(deck domain.Deck) bool {
	return s.update(func() bool {
		idx := s.deckIndex(deck.ID)
		if idx < 0 {
			return false
		}
		d := deck.Clone()
		for i := range d.Cards {
			d.Cards[i].Box = d.Cards[i].Box.Clamp()
		}
		s.decks[idx] = d
		return true
	})
}

// RemoveDeck deletes a deck and all of its cards
func (s *DeckStore) RemoveDeck(deckID string) bool {
	return s.update(func() bool {
		idx := s.deckIndex(deckID)
		if idx < 0 {
			return false
		}
		s.decks = slices.Delete(s.decks, idx, idx+1)
		return true
	})
}

// AddCard inserts a card at the front of a deck
func (s *DeckStore) AddCard(card domain.Card, deckID string) bool {
	return s.update(func() bool {
		idx := s.deckIndex(deckID)
		if idx < 0 {
			return false
		}
		c := card.Clone()
		c.Box = c.Box.Clamp()
		s.decks[idx].Cards = slices.Insert(s.decks[idx].Cards, 0, c)
		return true
	})
}

// UpdateCard replaces the card with the same ID in a deck
func (s *DeckStore) UpdateCard(card domain.Card, deckID string) bool {
	return s.withCard(deckID, card.ID, func(c *domain.Card) {
		*c = card.Clone()
		c.Box = c.Box.Clamp()
	})
}

// RemoveCard deletes a card from a deck
func (s *DeckStore) RemoveCard(cardID, deckID string) bool {
	return s.update(func() bool {
		dIdx := s.deckIndex(deckID)
		if dIdx < 0 {
			return false
		}
		cIdx := s.decks[dIdx].CardIndex(cardID)
		if cIdx < 0 {
			return false
		}
		s.decks[dIdx].Cards = slices.Delete(s.decks[dIdx].Cards, cIdx, cIdx+1)
		return true
	})
}

// Promote moves a card up one box (max 3) and stamps it
func (s *DeckStore) Promote(cardID, deckID string) bool {
	return s.withCard(deckID, cardID, func(c *domain.Card) {
		c.Box = (c.Box + 1).Clamp()
		c.MarkReviewed(s.now())
	})
}

// Demote moves a card down one box (min 1) and stamps it
func (s *DeckStore) Demote(cardID, deckID string) bool {
	return s.withCard(deckID, cardID, func(c *domain.Card) {
		c.Box = (c.Box - 1).Clamp()
		c.MarkReviewed(s.now())
	})
}

// MarkKindOfKnow puts a card in box 2 whatever box it was in, and stamps it
func (s *DeckStore) MarkKindOfKnow(cardID, deckID string) bool {
	return s.SetBox(cardID, deckID, domain.BoxKindOfKnow)
}

// Touch stamps a card without changing its box
func (s *DeckStore) Touch(cardID, deckID string) bool {
	return s.withCard(deckID, cardID, func(c *domain.Card) {
		c.MarkReviewed(s.now())
	})
}

// SetBox assigns a box (clamped) and stamps the card
func (s *DeckStore) SetBox(cardID, deckID string, box domain.Box) bool {
	return s.withCard(deckID, cardID, func(c *domain.Card) {
		c.Box = box.Clamp()
		c.MarkReviewed(s.now())
	})
}

// Apply runs the transition for a study judgment
func (s *DeckStore) Apply(cardID, deckID string, j domain.Judgment) bool {
	switch j {
	case domain.JudgmentDontKnow:
		return s.Demote(cardID, deckID)
	case domain.JudgmentKindOfKnow:
		return s.MarkKindOfKnow(cardID, deckID)
	case domain.JudgmentKnow:
		return s.Promote(cardID, deckID)
	case domain.JudgmentSkip:
		return s.Touch(cardID, deckID)
	}
	s.logger.Warn("Unknown judgment ignored", zap.Stringer("judgment", j))
	return false
}

// DueCards returns the deck's cards in box, never-reviewed first, then by
// oldest review, ties by ID. Unknown decks yield an empty slice.
func (s *DeckStore) DueCards(deckID string, box domain.Box) []domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := []domain.Card{}
	idx := s.deckIndex(deckID)
	if idx < 0 {
		return due
	}
	for _, c := range s.decks[idx].Cards {
		if c.Box == box {
			due = append(due, c.Clone())
		}
	}
	slices.SortFunc(due, domain.CompareDue)
	return due
}

// TotalCardsInBox counts cards in box across all decks
func (s *DeckStore) TotalCardsInBox(box domain.Box) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, d := range s.decks {
		total += d.CardsInBox(box)
	}
	return total
}

// Search returns copies of decks whose name or card text contains query
func (s *DeckStore) Search(query string) []domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Deck
	for _, d := range s.decks {
		if d.Matches(query) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the subscription.
func (s *DeckStore) Subscribe(fn func([]domain.Deck)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// withCard mutates one card in place and persists. Missing deck or card is a no-op.
func (s *DeckStore) withCard(deckID, cardID string, fn func(*domain.Card)) bool {
	return s.update(func() bool {
		dIdx := s.deckIndex(deckID)
		if dIdx < 0 {
			s.logger.Debug("Deck not found", zap.String("deck_id", deckID))
			return false
		}
		cIdx := s.decks[dIdx].CardIndex(cardID)
		if cIdx < 0 {
			s.logger.Debug("Card not found",
				zap.String("deck_id", deckID),
				zap.String("card_id", cardID),
			)
			return false
		}
		fn(&s.decks[dIdx].Cards[cIdx])
		return true
	})
}

// update runs fn under the write lock and persists if it changed anything.
// Subscribers are notified after the lock is released.
func (s *DeckStore) update(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	if changed {
		s.persist()
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return changed
}

// persist must be called with mu held
func (s *DeckStore) persist() {
	if err := s.repo.SaveAll(domain.CloneDecks(s.decks)); err != nil {
		s.logger.Error("Failed to save decks", zap.Error(err))
	}
}

func (s *DeckStore) notify() {
	s.subMu.Lock()
	fns := make([]func([]domain.Deck), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	for _, fn := range fns {
		fn(s.Decks())
	}
}

// deckIndex must be called with mu held
func (s *DeckStore) deckIndex(deckID string) int {
	for i, d := range s.decks {
		if d.ID == deckID {
			return i
		}
	}
	return -1
}
