package domain

import "time"

// Box is a Leitner box a card belongs to
type Box int

const (
	BoxDontKnow   Box = 1
	BoxKindOfKnow Box = 2
	BoxKnow       Box = 3
)

// MinBox and MaxBox bound every box value
const (
	MinBox = BoxDontKnow
	MaxBox = BoxKnow
)

// Boxes lists all boxes in study order
var Boxes = []Box{BoxDontKnow, BoxKindOfKnow, BoxKnow}

// Clamp returns b limited to [MinBox, MaxBox]
func (b Box) Clamp() Box {
	if b < MinBox {
		return MinBox
	}
	if b > MaxBox {
		return MaxBox
	}
	return b
}

// Valid reports whether b is one of the three boxes
func (b Box) Valid() bool {
	return b >= MinBox && b <= MaxBox
}

// Label returns the user-facing name of the box
func (b Box) Label() string {
	switch b {
	case BoxDontKnow:
		return "Don't Know"
	case BoxKindOfKnow:
		return "Kind of Know"
	case BoxKnow:
		return "Know"
	}
	return "Unknown"
}

// Card represents a question-answer flashcard
type Card struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Box          Box        `json:"box"`
	LastReviewed *time.Time `json:"lastReviewed,omitempty"` // nil until the first judgment
}

// Stamp returns the card's review state
func (c Card) Stamp() ReviewStamp {
	if c.LastReviewed == nil {
		return Unreviewed()
	}
	return ReviewedAt(*c.LastReviewed)
}

// Clone returns a copy that shares no memory with c
func (c Card) Clone() Card {
	out := c
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		out.LastReviewed = &t
	}
	return out
}

// MarkReviewed sets the review timestamp
func (c *Card) MarkReviewed(at time.Time) {
	c.LastReviewed = &at
}
