package handler

import (
	"errors"
	"strings"

	"rekard/internal/domain"
	"rekard/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	// If not authorized, the message is a password attempt
	if !isAuthorized(c) {
		if !h.authService.CheckPassword(text) {
			return c.Send("🚫 Wrong password")
		}
		if err := h.authService.AuthorizeUser(userID); err != nil {
			h.logger.Error("Failed to authorize user", zap.Error(err))
			return c.Send("Something went wrong. Please try again later.")
		}
		h.ResetState(userID)
		return c.Send("✅ Access granted!\n\n"+mainMenuText, mainMenuMarkup())
	}

	state := h.GetState(userID)

	switch state.State {
	case domain.StateWaitingDeckName:
		deck := h.editor.NewDeck(text, "", service.DefaultColor())
		h.store.AddDeck(deck)
		h.ResetState(userID)

		h.logger.Info("Deck created",
			zap.Int64("user_id", userID),
			zap.String("deck_id", deck.ID),
			zap.String("name", deck.Name),
		)
		return h.showDeck(c, deck)

	case domain.StateWaitingQuestion:
		if text == "" {
			return c.Send("The question can't be empty. Send the question", cancelMarkup())
		}
		h.SetState(userID, &domain.StateData{
			State:           domain.StateWaitingAnswer,
			DeckID:          state.DeckID,
			CurrentQuestion: text,
		})
		return c.Send("Now send the answer", cancelMarkup())

	case domain.StateWaitingAnswer:
		return h.saveCard(c, userID, state, text)

	case domain.StateRenamingDeck:
		return h.renameDeck(c, userID, state, text)

	case domain.StateEditingQuestion:
		card, _, ok := h.store.FindCard(state.CardID)
		if !ok {
			h.ResetState(userID)
			return c.Send("That card no longer exists.", mainMenuMarkup())
		}
		if text == "" {
			return c.Send("The question can't be empty. Send the new question", cancelMarkup())
		}
		h.SetState(userID, &domain.StateData{
			State:           domain.StateEditingAnswer,
			DeckID:          state.DeckID,
			CardID:          state.CardID,
			CurrentQuestion: text,
		})
		return c.Send("Now send the new answer\n\nNow: "+card.Answer, cancelMarkup())

	case domain.StateEditingAnswer:
		return h.updateCard(c, userID, state, text)

	default:
		return c.Send("Use the menu to pick what to do.", mainMenuMarkup())
	}
}

// saveCard builds a card from the typed question and answer and adds it to the deck
func (h *Handler) saveCard(c tele.Context, userID int64, state *domain.StateData, answer string) error {
	card, err := h.editor.NewCard(state.CurrentQuestion, answer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyAnswer):
			return c.Send("The answer can't be empty. Send the answer", cancelMarkup())
		case errors.Is(err, service.ErrEmptyQuestion):
			h.SetState(userID, &domain.StateData{State: domain.StateWaitingQuestion, DeckID: state.DeckID})
			return c.Send("The question can't be empty. Send the question", cancelMarkup())
		}
		h.logger.Error("Failed to build card", zap.Error(err))
		return c.Send("Something went wrong. Please try again later.")
	}

	if !h.store.AddCard(card, state.DeckID) {
		h.ResetState(userID)
		return c.Send("That deck no longer exists.", mainMenuMarkup())
	}

	h.logger.Info("Card added",
		zap.Int64("user_id", userID),
		zap.String("deck_id", state.DeckID),
		zap.String("card_id", card.ID),
	)

	// Wait for the next question in the same deck
	h.SetState(userID, &domain.StateData{State: domain.StateWaitingQuestion, DeckID: state.DeckID})

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("◀️ Done", prefixDeck+state.DeckID)))
	return c.Send("✅ Saved!\n\nSend the next question or tap Done.", markup)
}

// updateCard replaces the text of the card being edited, keeping its box and review time
func (h *Handler) updateCard(c tele.Context, userID int64, state *domain.StateData, answer string) error {
	existing, deckID, ok := h.store.FindCard(state.CardID)
	if !ok {
		h.ResetState(userID)
		return c.Send("That card no longer exists.", mainMenuMarkup())
	}

	card, err := h.editor.EditCard(existing, state.CurrentQuestion, answer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyAnswer):
			return c.Send("The answer can't be empty. Send the new answer", cancelMarkup())
		case errors.Is(err, service.ErrEmptyQuestion):
			h.SetState(userID, &domain.StateData{State: domain.StateEditingQuestion, DeckID: deckID, CardID: existing.ID})
			return c.Send("The question can't be empty. Send the new question", cancelMarkup())
		}
		h.logger.Error("Failed to edit card", zap.Error(err))
		return c.Send("Something went wrong. Please try again later.")
	}

	h.ResetState(userID)
	if !h.store.UpdateCard(card, deckID) {
		return c.Send("That card no longer exists.", mainMenuMarkup())
	}

	h.logger.Info("Card updated",
		zap.Int64("user_id", userID),
		zap.String("deck_id", deckID),
		zap.String("card_id", card.ID),
	)
	return h.showCard(c, deckID, card)
}

// renameDeck applies a new name to the deck being renamed
func (h *Handler) renameDeck(c tele.Context, userID int64, state *domain.StateData, name string) error {
	existing, ok := h.store.Deck(state.DeckID)
	if !ok {
		h.ResetState(userID)
		return c.Send("That deck no longer exists.", mainMenuMarkup())
	}

	deck, err := h.editor.EditDeck(existing, name, existing.Icon, existing.Color)
	if err != nil {
		if errors.Is(err, service.ErrEmptyDeckName) {
			return c.Send("The name can't be empty. Send a new name", cancelMarkup())
		}
		h.logger.Error("Failed to edit deck", zap.Error(err))
		return c.Send("Something went wrong. Please try again later.")
	}

	h.ResetState(userID)
	if !h.store.UpdateDeck(deck) {
		return c.Send("That deck no longer exists.", mainMenuMarkup())
	}

	h.logger.Info("Deck renamed",
		zap.Int64("user_id", userID),
		zap.String("deck_id", deck.ID),
		zap.String("name", deck.Name),
	)
	return h.showDeck(c, deck)
}
