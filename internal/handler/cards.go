package handler

import (
	"rekard/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleCardList shows one page of a deck's cards
func (h *Handler) handleCardList(c tele.Context, data string) error {
	deckID, page, err := parseCardsData(data)
	if err != nil {
		h.logger.Warn("Bad card list callback", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
	}

	h.ResetState(c.Sender().ID)

	deck, ok := h.store.Deck(deckID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}
	return h.showCardList(c, deck, page)
}

func (h *Handler) showCardList(c tele.Context, deck domain.Deck, page int) error {
	start, end, page, pages := pageBounds(len(deck.Cards), page)

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, end-start+2)
	for _, card := range deck.Cards[start:end] {
		rows = append(rows, markup.Row(markup.Data(cardButtonText(card), prefixCard+card.ID)))
	}

	// Add pagination buttons
	if pages > 1 {
		navRow := tele.Row{}
		if page > 0 {
			navRow = append(navRow, markup.Data("⬅️", cardsData(deck.ID, page-1)))
		}
		if page < pages-1 {
			navRow = append(navRow, markup.Data("➡️", cardsData(deck.ID, page+1)))
		}
		rows = append(rows, navRow)
	}

	rows = append(rows, markup.Row(
		markup.Data("➕ Add card", prefixAddCard+deck.ID),
		markup.Data("◀️ Back to deck", prefixDeck+deck.ID),
	))
	markup.Inline(rows...)

	return h.render(c, cardListText(deck, page, pages), markup)
}

// handleCardDetail shows both faces of a card with its actions
func (h *Handler) handleCardDetail(c tele.Context, cardID string) error {
	h.ResetState(c.Sender().ID)

	card, deckID, ok := h.store.FindCard(cardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Card not found"})
	}
	return h.showCard(c, deckID, card)
}

func (h *Handler) showCard(c tele.Context, deckID string, card domain.Card) error {
	markup := &tele.ReplyMarkup{}

	moves := tele.Row{}
	for _, box := range domain.Boxes {
		if box != card.Box {
			moves = append(moves, markup.Data("➡️ Box "+box.Label(), setBoxData(card.ID, box)))
		}
	}

	markup.Inline(
		markup.Row(
			markup.Data("✏️ Edit", prefixEditCard+card.ID),
			markup.Data("🗑 Delete", prefixRemoveCard+card.ID),
		),
		moves,
		markup.Row(markup.Data("◀️ Back to cards", cardsData(deckID, 0))),
	)
	return h.render(c, cardDetailText(card), markup)
}

// handleEditCard starts the new question → new answer flow for a card
func (h *Handler) handleEditCard(c tele.Context, cardID string) error {
	card, deckID, ok := h.store.FindCard(cardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Card not found"})
	}

	h.SetState(c.Sender().ID, &domain.StateData{
		State:  domain.StateEditingQuestion,
		DeckID: deckID,
		CardID: card.ID,
	})
	return h.render(c, "✏️ Send the new question\n\nNow: "+card.Question, cancelMarkup())
}

// handleRemoveCard deletes a card and returns to its deck's card list
func (h *Handler) handleRemoveCard(c tele.Context, cardID string) error {
	userID := c.Sender().ID

	_, deckID, ok := h.store.FindCard(cardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Card not found"})
	}

	if h.store.RemoveCard(cardID, deckID) {
		h.logger.Info("Card removed",
			zap.Int64("user_id", userID),
			zap.String("deck_id", deckID),
			zap.String("card_id", cardID),
		)
	}

	deck, ok := h.store.Deck(deckID)
	if !ok {
		return h.handleDecks(c)
	}
	return h.showCardList(c, deck, 0)
}

// handleSetBox moves a card to the chosen box
func (h *Handler) handleSetBox(c tele.Context, data string) error {
	cardID, box, err := parseSetBoxData(data)
	if err != nil {
		h.logger.Warn("Bad set box callback", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Unknown box"})
	}

	_, deckID, ok := h.store.FindCard(cardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Card not found"})
	}
	h.store.SetBox(cardID, deckID, box)

	card, _, ok := h.store.FindCard(cardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Card not found"})
	}
	return h.showCard(c, deckID, card)
}

// handleRenameDeck asks for a new deck name
func (h *Handler) handleRenameDeck(c tele.Context, deckID string) error {
	deck, ok := h.store.Deck(deckID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}

	h.SetState(c.Sender().ID, &domain.StateData{
		State:  domain.StateRenamingDeck,
		DeckID: deck.ID,
	})
	return h.render(c, "✏️ Send a new name for “"+deck.Name+"”", cancelMarkup())
}
