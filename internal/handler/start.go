package handler

import (
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	mainMenuText       = "🏠 Main menu\n\nChoose an action:"
	passwordPromptText = "👋 Hi! This bot is private. Send the password to continue:"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	h.ResetState(userID)
	h.endSession(userID)

	if !isAuthorized(c) {
		return c.Send(passwordPromptText)
	}
	return h.render(c, mainMenuText, mainMenuMarkup())
}

// handleStats shows box totals across all decks
func (h *Handler) handleStats(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnDecks, btnMainMenu))
	return h.render(c, statsText(h.statsService.Summary()), markup)
}

// handleSearch handles /search <query>
func (h *Handler) handleSearch(c tele.Context) error {
	query := strings.TrimSpace(c.Message().Payload)
	if query == "" {
		return c.Send("Usage: /search <text>")
	}

	decks := h.store.Search(query)
	h.logger.Debug("Search",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("query", query),
		zap.Int("results", len(decks)),
	)

	markup := deckListMarkup(decks)
	return c.Send(searchText(query, decks), markup)
}
