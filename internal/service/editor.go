package service

import (
	"errors"
	"strings"

	"rekard/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UntitledDeck names decks created with a blank name
const UntitledDeck = "Untitled Deck"

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrEmptyAnswer   = errors.New("answer cannot be empty")
	ErrEmptyDeckName = errors.New("deck name cannot be empty")
)

type cardDraft struct {
	Question string `validate:"required"`
	Answer   string `validate:"required"`
}

// Editor validates user input and builds cards and decks for the store
type Editor struct {
	validate *validator.Validate
	newID    func() string
}

// NewEditor creates an editor issuing random UUIDs
func NewEditor() *Editor {
	return &Editor{
		validate: validator.New(),
		newID:    func() string { return uuid.New().String() },
	}
}

// NewCard builds a box-1, never-reviewed card from trimmed text
func (e *Editor) NewCard(question, answer string) (domain.Card, error) {
	draft, err := e.draft(question, answer)
	if err != nil {
		return domain.Card{}, err
	}
	return domain.Card{
		ID:       e.newID(),
		Question: draft.Question,
		Answer:   draft.Answer,
		Box:      domain.BoxDontKnow,
	}, nil
}

// EditCard replaces the text of an existing card, keeping its box and review stamp
func (e *Editor) EditCard(existing domain.Card, question, answer string) (domain.Card, error) {
	draft, err := e.draft(question, answer)
	if err != nil {
		return domain.Card{}, err
	}
	card := existing.Clone()
	card.Question = draft.Question
	card.Answer = draft.Answer
	return card, nil
}

// NewDeck builds an empty deck. A blank name becomes UntitledDeck.
func (e *Editor) NewDeck(name, icon string, color domain.Color) domain.Deck {
	name = strings.TrimSpace(name)
	if name == "" {
		name = UntitledDeck
	}
	return domain.Deck{
		ID:    e.newID(),
		Name:  name,
		Icon:  iconOrDefault(icon),
		Color: clampColor(color),
		Cards: []domain.Card{},
	}
}

// EditDeck changes deck presentation fields, keeping its cards
func (e *Editor) EditDeck(existing domain.Deck, name, icon string, color domain.Color) (domain.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Deck{}, ErrEmptyDeckName
	}
	deck := existing.Clone()
	deck.Name = name
	deck.Icon = iconOrDefault(icon)
	deck.Color = clampColor(color)
	return deck, nil
}

// DefaultColor is the tint of decks created without a colour choice
func DefaultColor() domain.Color {
	return domain.Color{Red: 0.85, Green: 0.45, Blue: 0.45, Opacity: 1}
}

func (e *Editor) draft(question, answer string) (cardDraft, error) {
	draft := cardDraft{
		Question: strings.TrimSpace(question),
		Answer:   strings.TrimSpace(answer),
	}
	if err := e.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Answer" {
			return cardDraft{}, ErrEmptyAnswer
		}
		return cardDraft{}, ErrEmptyQuestion
	}
	return draft, nil
}

func iconOrDefault(icon string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return domain.DefaultDeckIcon
	}
	return icon
}

func clampColor(c domain.Color) domain.Color {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return domain.Color{
		Red:     clamp(c.Red),
		Green:   clamp(c.Green),
		Blue:    clamp(c.Blue),
		Opacity: clamp(c.Opacity),
	}
}
