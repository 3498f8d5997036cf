package domain

import "strings"

// DefaultDeckIcon is used when a deck is created without an icon
const DefaultDeckIcon = "book.fill"

// Color holds deck tint channels, each in [0, 1]
type Color struct {
	Red     float64 `json:"red"`
	Green   float64 `json:"green"`
	Blue    float64 `json:"blue"`
	Opacity float64 `json:"opacity"`
}

// Deck is a named, ordered collection of cards
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color Color  `json:"color"`
	Cards []Card `json:"cards"`
}

// Clone returns a deep copy of the deck
func (d Deck) Clone() Deck {
	out := d
	out.Cards = make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		out.Cards[i] = c.Clone()
	}
	return out
}

// CardIndex returns the position of the card with the given ID, or -1
func (d Deck) CardIndex(cardID string) int {
	for i, c := range d.Cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// CardsInBox counts the deck's cards in box b
func (d Deck) CardsInBox(b Box) int {
	n := 0
	for _, c := range d.Cards {
		if c.Box == b {
			n++
		}
	}
	return n
}

// Matches reports whether the deck name or any card text contains query,
// ignoring case. An empty query matches every deck.
func (d Deck) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Name), q) {
		return true
	}
	for _, c := range d.Cards {
		if strings.Contains(strings.ToLower(c.Question), q) ||
			strings.Contains(strings.ToLower(c.Answer), q) {
			return true
		}
	}
	return false
}

// CloneDecks deep-copies a deck collection
func CloneDecks(decks []Deck) []Deck {
	out := make([]Deck, len(decks))
	for i, d := range decks {
		out[i] = d.Clone()
	}
	return out
}
