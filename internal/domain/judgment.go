package domain

import "fmt"

// Judgment is the outcome a user gives for a presented card
type Judgment int

const (
	JudgmentDontKnow   Judgment = iota + 1 // demote
	JudgmentKindOfKnow                     // set box 2
	JudgmentKnow                           // promote
	JudgmentSkip                           // touch only
)

var judgmentNames = [...]string{
	JudgmentDontKnow:   "dont_know",
	JudgmentKindOfKnow: "kind_of_know",
	JudgmentKnow:       "know",
	JudgmentSkip:       "skip",
}

// Valid reports whether j is a known judgment
func (j Judgment) Valid() bool {
	return j >= JudgmentDontKnow && j <= JudgmentSkip
}

func (j Judgment) String() string {
	if j.Valid() {
		return judgmentNames[j]
	}
	return fmt.Sprintf("Judgment(%d)", int(j))
}
