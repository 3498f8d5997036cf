package domain

import (
	"strings"
	"time"
)

// ReviewStamp is either Unreviewed or ReviewedAt(t)
type ReviewStamp struct {
	at       time.Time
	reviewed bool
}

// Unreviewed returns the stamp of a card that was never judged
func Unreviewed() ReviewStamp {
	return ReviewStamp{}
}

// ReviewedAt returns the stamp of a card last judged at t
func ReviewedAt(t time.Time) ReviewStamp {
	return ReviewStamp{at: t, reviewed: true}
}

// Reviewed reports whether the stamp carries a timestamp
func (s ReviewStamp) Reviewed() bool {
	return s.reviewed
}

// Time returns the review time and whether there is one
func (s ReviewStamp) Time() (time.Time, bool) {
	return s.at, s.reviewed
}

// Compare orders stamps: Unreviewed first, then ascending by time
func (s ReviewStamp) Compare(o ReviewStamp) int {
	switch {
	case !s.reviewed && !o.reviewed:
		return 0
	case !s.reviewed:
		return -1
	case !o.reviewed:
		return 1
	}
	return s.at.Compare(o.at)
}

// DisplayString returns a short user-friendly form of the stamp
func (s ReviewStamp) DisplayString() string {
	if !s.reviewed {
		return "never"
	}
	now := time.Now()
	date := s.at.In(now.Location())

	if sameDay(date, now) {
		return "today"
	}
	if sameDay(date, now.AddDate(0, 0, -1)) {
		return "yesterday"
	}
	return date.Format("2 Jan 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// CompareDue is the total order of a due set: never-reviewed cards first,
// then oldest review first. Equal stamps fall back to the card ID.
func CompareDue(a, b Card) int {
	if c := a.Stamp().Compare(b.Stamp()); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

