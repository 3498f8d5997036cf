package service

import (
	"errors"
	"fmt"

	"rekard/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrSessionNotActive = errors.New("session: no card is being presented")
	ErrInvalidJudgment  = errors.New("session: invalid judgment")
)

// SessionState is the phase of a study session
type SessionState int

const (
	SessionIdle       SessionState = iota // not started
	SessionPresenting                     // front of the current card shown
	SessionRevealed                       // answer of the current card shown
	SessionFinished                       // due set exhausted
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionPresenting:
		return "presenting"
	case SessionRevealed:
		return "revealed"
	case SessionFinished:
		return "finished"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// StudyStore is the part of the deck store a session drives
type StudyStore interface {
	DueCards(deckID string, box domain.Box) []domain.Card
	Apply(cardID, deckID string, j domain.Judgment) bool
}

// StudySession walks the due set of one box of one deck.
// It is not safe for concurrent use; callers serialise access per session.
type StudySession struct {
	store  StudyStore
	deckID string
	box    domain.Box
	logger *zap.Logger

	state    SessionState
	cards    []domain.Card
	index    int
	judged   int
	onFinish func()
}

// NewStudySession creates an idle session for (deckID, box)
func NewStudySession(store StudyStore, deckID string, box domain.Box, logger *zap.Logger) *StudySession {
	return &StudySession{
		store:  store,
		deckID: deckID,
		box:    box,
		logger: logger,
		state:  SessionIdle,
	}
}

// OnFinish sets a callback run once when the session finishes
func (s *StudySession) OnFinish(fn func()) {
	s.onFinish = fn
}

// Start loads the due set and presents the first card.
// Starting a non-idle session has no effect.
func (s *StudySession) Start() SessionState {
	if s.state != SessionIdle {
		return s.state
	}
	s.cards = s.store.DueCards(s.deckID, s.box)
	s.index = 0
	s.logger.Debug("Study session started",
		zap.String("deck_id", s.deckID),
		zap.Int("box", int(s.box)),
		zap.Int("due", len(s.cards)),
	)
	s.settle()
	return s.state
}

// Reveal shows the answer of the current card
func (s *StudySession) Reveal() bool {
	if s.state != SessionPresenting {
		return false
	}
	s.state = SessionRevealed
	return true
}

// Hide flips the current card back to its question
func (s *StudySession) Hide() bool {
	if s.state != SessionRevealed {
		return false
	}
	s.state = SessionPresenting
	return true
}

// Judge applies j to the current card, reloads the due set and moves on.
// If the card is still in the reloaded set the session resumes right after it,
// otherwise it stays at the same index, which now holds the next card.
func (s *StudySession) Judge(j domain.Judgment) (SessionState, error) {
	if !j.Valid() {
		return s.state, fmt.Errorf("%w: %v", ErrInvalidJudgment, j)
	}
	card, ok := s.Current()
	if !ok {
		return s.state, ErrSessionNotActive
	}

	if !s.store.Apply(card.ID, s.deckID, j) {
		s.logger.Debug("Judged card vanished before update",
			zap.String("deck_id", s.deckID),
			zap.String("card_id", card.ID),
		)
	}
	s.judged++

	s.cards = s.store.DueCards(s.deckID, s.box)
	for i, c := range s.cards {
		if c.ID == card.ID {
			s.index = i + 1
			break
		}
	}
	s.settle()
	return s.state, nil
}

// Current returns the card being presented
func (s *StudySession) Current() (domain.Card, bool) {
	if s.state != SessionPresenting && s.state != SessionRevealed {
		return domain.Card{}, false
	}
	return s.cards[s.index], true
}

// State returns the session phase
func (s *StudySession) State() SessionState {
	return s.state
}

// Index returns the position of the current card in the due set
func (s *StudySession) Index() int {
	return s.index
}

// Remaining returns how many cards are left including the current one
func (s *StudySession) Remaining() int {
	if s.state == SessionIdle || s.state == SessionFinished {
		return 0
	}
	return len(s.cards) - s.index
}

// Judged returns how many judgments were applied in this session
func (s *StudySession) Judged() int {
	return s.judged
}

// DeckID returns the deck being studied
func (s *StudySession) DeckID() string {
	return s.deckID
}

// Box returns the box being studied
func (s *StudySession) Box() domain.Box {
	return s.box
}

// settle presents the card at index or finishes the session
func (s *StudySession) settle() {
	if s.index < len(s.cards) {
		s.state = SessionPresenting
		return
	}
	s.state = SessionFinished
	s.logger.Debug("Study session finished",
		zap.String("deck_id", s.deckID),
		zap.Int("box", int(s.box)),
		zap.Int("judged", s.judged),
	)
	if s.onFinish != nil {
		fn := s.onFinish
		s.onFinish = nil
		fn()
	}
}
