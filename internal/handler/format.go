package handler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rekard/internal/domain"
	"rekard/internal/service"
)

// boxLine renders the box number with its label
func boxLine(b domain.Box) string {
	return fmt.Sprintf("Box %d — %s", int(b), b.Label())
}

func cardCount(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}

// deckListText renders the deck list header
func deckListText(decks []domain.Deck) string {
	if len(decks) == 0 {
		return "📚 You have no decks yet.\n\nCreate one with ➕ New deck."
	}
	return fmt.Sprintf("📚 Your decks (%d):", len(decks))
}

// deckButtonText renders a deck entry in the list
func deckButtonText(d domain.Deck) string {
	return fmt.Sprintf("%s (%d)", d.Name, len(d.Cards))
}

// deckScreenText renders a deck with its per-box counts
func deckScreenText(d domain.Deck) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %s\n%s\n\n", d.Name, cardCount(len(d.Cards)))
	for _, box := range domain.Boxes {
		fmt.Fprintf(&b, "%s: %d\n", boxLine(box), d.CardsInBox(box))
	}
	b.WriteString("\nPick a box to study.")
	return b.String()
}

// cardText renders the current card of a session, with the answer when revealed
func cardText(deckName string, box domain.Box, card domain.Card, remaining int, revealed bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 %s · %s\n", deckName, boxLine(box))
	fmt.Fprintf(&b, "Left: %d · Last reviewed: %s\n\n", remaining, card.Stamp().DisplayString())
	fmt.Fprintf(&b, "❓ %s", card.Question)
	if revealed {
		fmt.Fprintf(&b, "\n\n💡 %s", card.Answer)
	}
	return b.String()
}

// sessionDoneText renders the end of a study session
func sessionDoneText(deckName string, box domain.Box, judged int) string {
	if judged == 0 {
		return fmt.Sprintf("🎉 %s · %s\n\nNothing to study here.", deckName, boxLine(box))
	}
	return fmt.Sprintf("🎉 %s · %s\n\nSession finished, %s reviewed.", deckName, boxLine(box), cardCount(judged))
}

// statsText renders collection totals
func statsText(sum service.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Stats\n\nDecks: %d\nCards: %d\n\n", sum.Decks, sum.Cards)
	for _, box := range domain.Boxes {
		fmt.Fprintf(&b, "%s: %d\n", boxLine(box), sum.Boxes[box])
	}
	return strings.TrimRight(b.String(), "\n")
}

// searchText renders search results
func searchText(query string, decks []domain.Deck) string {
	if len(decks) == 0 {
		return fmt.Sprintf("🔎 Nothing found for %q", query)
	}
	return fmt.Sprintf("🔎 Decks matching %q (%d):", query, len(decks))
}

const (
	cardsPerPage     = 8
	cardButtonLength = 40
)

// pageBounds clamps page into range and returns the slice bounds of that page
func pageBounds(total, page int) (start, end, clamped, pages int) {
	pages = (total + cardsPerPage - 1) / cardsPerPage
	if pages == 0 {
		pages = 1
	}
	clamped = min(max(page, 0), pages-1)
	start = clamped * cardsPerPage
	end = min(start+cardsPerPage, total)
	return start, end, clamped, pages
}

// cardListText renders the header of a deck's card list
func cardListText(d domain.Deck, page, pages int) string {
	if len(d.Cards) == 0 {
		return fmt.Sprintf("📝 %s\n\nNo cards yet.", d.Name)
	}
	text := fmt.Sprintf("📝 %s · %s", d.Name, cardCount(len(d.Cards)))
	if pages > 1 {
		text += fmt.Sprintf("\nPage %d/%d", page+1, pages)
	}
	return text
}

// cardButtonText renders a card entry: its box number and a shortened question
func cardButtonText(card domain.Card) string {
	q := card.Question
	if utf8.RuneCountInString(q) > cardButtonLength {
		q = string([]rune(q)[:cardButtonLength-1]) + "…"
	}
	return fmt.Sprintf("[%d] %s", int(card.Box), q)
}

// cardDetailText renders one card with both faces
func cardDetailText(card domain.Card) string {
	return fmt.Sprintf("❓ %s\n\n💡 %s\n\n%s\nLast reviewed: %s",
		card.Question, card.Answer, boxLine(card.Box), card.Stamp().DisplayString())
}
