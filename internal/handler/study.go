package handler

import (
	"rekard/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const staleJudgmentText = "That card was already answered"

// handleStudyBox starts a study session over one box of a deck
func (h *Handler) handleStudyBox(c tele.Context, data string) error {
	userID := c.Sender().ID
	defer h.lockUser(userID)()

	deckID, box, err := parseBoxData(data)
	if err != nil {
		h.logger.Warn("Bad box callback", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Unknown box"})
	}
	if _, ok := h.store.Deck(deckID); !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}

	h.ResetState(userID)

	session := service.NewStudySession(h.store, deckID, box, h.logger)
	session.OnFinish(func() {
		h.logger.Info("Study session finished",
			zap.Int64("user_id", userID),
			zap.String("deck_id", deckID),
			zap.Int("box", int(box)),
			zap.Int("judged", session.Judged()),
		)
	})
	session.Start()
	h.setSession(userID, session)

	return h.showStudy(c, userID, session)
}

// handleReveal shows the answer of the current card
func (h *Handler) handleReveal(c tele.Context) error {
	userID := c.Sender().ID
	defer h.lockUser(userID)()

	session, ok := h.session(userID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "No active session"})
	}
	if !session.Reveal() {
		return c.Respond()
	}
	return h.showStudy(c, userID, session)
}

// handleHide flips the current card back to its question
func (h *Handler) handleHide(c tele.Context) error {
	userID := c.Sender().ID
	defer h.lockUser(userID)()

	session, ok := h.session(userID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "No active session"})
	}
	if !session.Hide() {
		return c.Respond()
	}
	return h.showStudy(c, userID, session)
}

// handleJudge applies the user's judgment to the revealed card and moves to the next one.
// Taps for another card, or before the answer is shown, are answered as stale.
func (h *Handler) handleJudge(c tele.Context, data string) error {
	userID := c.Sender().ID
	defer h.lockUser(userID)()

	cardID, j, err := parseJudgeData(data)
	if err != nil {
		h.logger.Warn("Bad judgment callback", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Unknown answer"})
	}

	session, ok := h.session(userID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "No active session"})
	}

	card, ok := session.Current()
	if !ok || card.ID != cardID || session.State() != service.SessionRevealed {
		h.logger.Debug("Stale judgment ignored",
			zap.Int64("user_id", userID),
			zap.String("card_id", cardID),
			zap.String("current_id", card.ID),
			zap.Stringer("state", session.State()),
		)
		return c.Respond(&tele.CallbackResponse{Text: staleJudgmentText})
	}

	if _, err := session.Judge(j); err != nil {
		h.logger.Debug("Judgment rejected", zap.Error(err), zap.Int64("user_id", userID))
		return c.Respond()
	}

	h.logger.Debug("Card judged",
		zap.Int64("user_id", userID),
		zap.String("deck_id", session.DeckID()),
		zap.String("card_id", card.ID),
		zap.Stringer("judgment", j),
	)
	return h.showStudy(c, userID, session)
}

// handleEndSession stops studying and returns to the deck
func (h *Handler) handleEndSession(c tele.Context) error {
	userID := c.Sender().ID
	defer h.lockUser(userID)()

	session, ok := h.session(userID)
	h.endSession(userID)
	if !ok {
		return h.handleDecks(c)
	}

	deck, found := h.store.Deck(session.DeckID())
	if !found {
		return h.handleDecks(c)
	}
	return h.showDeck(c, deck)
}

// showStudy renders the session's current card or its summary when finished
func (h *Handler) showStudy(c tele.Context, userID int64, session *service.StudySession) error {
	deckName := "Deck"
	if deck, ok := h.store.Deck(session.DeckID()); ok {
		deckName = deck.Name
	}

	card, ok := session.Current()
	if !ok {
		h.endSession(userID)
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(
			markup.Data("◀️ Back to deck", prefixDeck+session.DeckID()),
			btnMainMenu,
		))
		return h.render(c, sessionDoneText(deckName, session.Box(), session.Judged()), markup)
	}

	revealed := session.State() == service.SessionRevealed
	text := cardText(deckName, session.Box(), card, session.Remaining(), revealed)
	return h.render(c, text, studyMarkup(card.ID, revealed))
}

func studyMarkup(cardID string, revealed bool) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	if !revealed {
		markup.Inline(
			markup.Row(btnReveal),
			markup.Row(btnEndSession),
		)
		return markup
	}

	btns := make([]tele.Btn, 0, len(judgmentButtons))
	for _, b := range judgmentButtons {
		btns = append(btns, markup.Data(b.text, judgeData(cardID, b.judgment)))
	}
	markup.Inline(
		markup.Row(btns[:2]...),
		markup.Row(btns[2:]...),
		markup.Row(btnHide, btnEndSession),
	)
	return markup
}
