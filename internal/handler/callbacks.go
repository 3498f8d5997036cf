package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"rekard/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Callback data prefixes for dynamic buttons
const (
	prefixDeck       = "deck_"
	prefixBox        = "box_"
	prefixJudge      = "judge_"
	prefixDelete     = "del_"
	prefixConfirmDel = "delok_"
	prefixAddCard    = "add_"
	prefixRename     = "rename_"
	prefixCards      = "cards_"
	prefixCard       = "card_"
	prefixEditCard   = "edit_"
	prefixRemoveCard = "rmcard_"
	prefixSetBox     = "setbox_"
)

var errBadCallback = errors.New("malformed callback data")

// judgmentButtons lists study buttons in display order
var judgmentButtons = []struct {
	judgment domain.Judgment
	text     string
}{
	{domain.JudgmentDontKnow, "❌ Don't know"},
	{domain.JudgmentKindOfKnow, "🤔 Kind of"},
	{domain.JudgmentKnow, "✅ Know"},
	{domain.JudgmentSkip, "⏭ Skip"},
}

// splitIDNumber splits "<prefix><id>_<n>". The id may itself contain underscores.
func splitIDNumber(data, prefix string) (string, int, error) {
	rest, ok := strings.CutPrefix(data, prefix)
	sep := strings.LastIndex(rest, "_")
	if !ok || sep <= 0 {
		return "", 0, fmt.Errorf("%w: %q", errBadCallback, data)
	}
	n, err := strconv.Atoi(rest[sep+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", errBadCallback, data)
	}
	return rest[:sep], n, nil
}

func parseIDBox(data, prefix string) (string, domain.Box, error) {
	id, n, err := splitIDNumber(data, prefix)
	if err != nil {
		return "", 0, err
	}
	box := domain.Box(n)
	if !box.Valid() {
		return "", 0, fmt.Errorf("%w: box %d", errBadCallback, n)
	}
	return id, box, nil
}

func boxData(deckID string, box domain.Box) string {
	return fmt.Sprintf("%s%s_%d", prefixBox, deckID, int(box))
}

// parseBoxData reads "box_<deckID>_<n>"
func parseBoxData(data string) (string, domain.Box, error) {
	return parseIDBox(data, prefixBox)
}

func setBoxData(cardID string, box domain.Box) string {
	return fmt.Sprintf("%s%s_%d", prefixSetBox, cardID, int(box))
}

// parseSetBoxData reads "setbox_<cardID>_<n>"
func parseSetBoxData(data string) (string, domain.Box, error) {
	return parseIDBox(data, prefixSetBox)
}

func judgeData(cardID string, j domain.Judgment) string {
	return fmt.Sprintf("%s%s_%d", prefixJudge, cardID, int(j))
}

// parseJudgeData reads "judge_<cardID>_<n>"
func parseJudgeData(data string) (string, domain.Judgment, error) {
	cardID, n, err := splitIDNumber(data, prefixJudge)
	if err != nil {
		return "", 0, err
	}
	j := domain.Judgment(n)
	if !j.Valid() {
		return "", 0, fmt.Errorf("%w: judgment %d", errBadCallback, n)
	}
	return cardID, j, nil
}

func cardsData(deckID string, page int) string {
	return fmt.Sprintf("%s%s_%d", prefixCards, deckID, page)
}

// parseCardsData reads "cards_<deckID>_<page>"
func parseCardsData(data string) (string, int, error) {
	deckID, page, err := splitIDNumber(data, prefixCards)
	if err != nil {
		return "", 0, err
	}
	if page < 0 {
		return "", 0, fmt.Errorf("%w: page %d", errBadCallback, page)
	}
	return deckID, page, nil
}

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Already edited by another callback, don't send a new message
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles callback queries without a registered button
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	// Static buttons whose Unique didn't come through
	if callback.Unique == "" {
		switch data {
		case btnDecks.Unique:
			return h.handleDecks(c)
		case btnStats.Unique:
			return h.handleStats(c)
		case btnNewDeck.Unique:
			return h.handleNewDeck(c)
		case btnReveal.Unique:
			return h.handleReveal(c)
		case btnHide.Unique:
			return h.handleHide(c)
		case btnEndSession.Unique:
			return h.handleEndSession(c)
		case btnCancel.Unique:
			return h.handleCancel(c)
		case btnMainMenu.Unique:
			return h.handleStart(c)
		}
	}

	// Handle by Data prefix (dynamic buttons)
	switch {
	case strings.HasPrefix(data, prefixDeck):
		return h.handleDeckSelection(c, strings.TrimPrefix(data, prefixDeck))
	case strings.HasPrefix(data, prefixBox):
		return h.handleStudyBox(c, data)
	case strings.HasPrefix(data, prefixJudge):
		return h.handleJudge(c, data)
	case strings.HasPrefix(data, prefixConfirmDel):
		return h.handleConfirmDelete(c, strings.TrimPrefix(data, prefixConfirmDel))
	case strings.HasPrefix(data, prefixDelete):
		return h.handleDeleteDeck(c, strings.TrimPrefix(data, prefixDelete))
	case strings.HasPrefix(data, prefixAddCard):
		return h.handleAddCard(c, strings.TrimPrefix(data, prefixAddCard))
	case strings.HasPrefix(data, prefixRename):
		return h.handleRenameDeck(c, strings.TrimPrefix(data, prefixRename))
	case strings.HasPrefix(data, prefixCards):
		return h.handleCardList(c, data)
	case strings.HasPrefix(data, prefixCard):
		return h.handleCardDetail(c, strings.TrimPrefix(data, prefixCard))
	case strings.HasPrefix(data, prefixEditCard):
		return h.handleEditCard(c, strings.TrimPrefix(data, prefixEditCard))
	case strings.HasPrefix(data, prefixRemoveCard):
		return h.handleRemoveCard(c, strings.TrimPrefix(data, prefixRemoveCard))
	case strings.HasPrefix(data, prefixSetBox):
		return h.handleSetBox(c, data)
	}

	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleDecks shows the list of decks
func (h *Handler) handleDecks(c tele.Context) error {
	h.ResetState(c.Sender().ID)
	decks := h.store.Decks()
	return h.render(c, deckListText(decks), deckListMarkup(decks))
}

func deckListMarkup(decks []domain.Deck) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(decks)+2)
	for _, d := range decks {
		rows = append(rows, markup.Row(markup.Data(deckButtonText(d), prefixDeck+d.ID)))
	}
	rows = append(rows, markup.Row(btnNewDeck), markup.Row(btnMainMenu))
	markup.Inline(rows...)
	return markup
}

// handleDeckSelection shows one deck with its boxes
func (h *Handler) handleDeckSelection(c tele.Context, deckID string) error {
	h.ResetState(c.Sender().ID)

	deck, ok := h.store.Deck(deckID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}
	return h.showDeck(c, deck)
}

func (h *Handler) showDeck(c tele.Context, deck domain.Deck) error {
	return h.render(c, deckScreenText(deck), deckMarkup(deck))
}

func deckMarkup(deck domain.Deck) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(domain.Boxes)+4)
	for _, box := range domain.Boxes {
		text := boxLine(box) + " (" + cardCount(deck.CardsInBox(box)) + ")"
		rows = append(rows, markup.Row(markup.Data(text, boxData(deck.ID, box))))
	}
	rows = append(rows,
		markup.Row(
			markup.Data("📝 Cards", cardsData(deck.ID, 0)),
			markup.Data("➕ Add card", prefixAddCard+deck.ID),
		),
		markup.Row(
			markup.Data("✏️ Rename", prefixRename+deck.ID),
			markup.Data("🗑 Delete deck", prefixDelete+deck.ID),
		),
		markup.Row(btnDecks, btnMainMenu),
	)
	markup.Inline(rows...)
	return markup
}

// handleDeleteDeck asks to confirm deck removal
func (h *Handler) handleDeleteDeck(c tele.Context, deckID string) error {
	deck, ok := h.store.Deck(deckID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("🗑 Yes, delete", prefixConfirmDel+deck.ID),
			markup.Data("◀️ Keep", prefixDeck+deck.ID),
		),
	)
	text := "Delete “" + deck.Name + "” and its " + cardCount(len(deck.Cards)) + "?"
	return h.render(c, text, markup)
}

// handleConfirmDelete removes a deck and returns to the list
func (h *Handler) handleConfirmDelete(c tele.Context, deckID string) error {
	userID := c.Sender().ID
	if h.store.RemoveDeck(deckID) {
		h.logger.Info("Deck removed",
			zap.Int64("user_id", userID),
			zap.String("deck_id", deckID),
		)
	}
	return h.handleDecks(c)
}

// handleNewDeck asks for the name of a new deck
func (h *Handler) handleNewDeck(c tele.Context) error {
	userID := c.Sender().ID
	h.SetState(userID, &domain.StateData{State: domain.StateWaitingDeckName})
	return h.render(c, "✏️ Send a name for the new deck", cancelMarkup())
}

// handleAddCard starts the question → answer flow for a deck
func (h *Handler) handleAddCard(c tele.Context, deckID string) error {
	userID := c.Sender().ID

	deck, ok := h.store.Deck(deckID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Deck not found"})
	}

	h.SetState(userID, &domain.StateData{
		State:  domain.StateWaitingQuestion,
		DeckID: deck.ID,
	})
	return h.render(c, "✏️ "+deck.Name+"\n\nSend the question", cancelMarkup())
}

// handleCancel cancels current operation and resets state
func (h *Handler) handleCancel(c tele.Context) error {
	userID := c.Sender().ID

	state := h.GetState(userID)
	h.ResetState(userID)

	if state.DeckID != "" {
		if deck, ok := h.store.Deck(state.DeckID); ok {
			return h.showDeck(c, deck)
		}
	}
	return h.render(c, mainMenuText, mainMenuMarkup())
}
