package domain

// UserState represents user's current text-input state
type UserState string

const (
	StateIdle            UserState = "idle"
	StateWaitingDeckName UserState = "waiting_deck_name"
	StateWaitingQuestion UserState = "waiting_question"
	StateWaitingAnswer   UserState = "waiting_answer"
	StateRenamingDeck    UserState = "renaming_deck"
	StateEditingQuestion UserState = "editing_question"
	StateEditingAnswer   UserState = "editing_answer"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State           UserState
	DeckID          string // deck the card being typed belongs to
	CardID          string // card being edited
	CurrentQuestion string
}
