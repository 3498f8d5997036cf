package handler

import (
	"sync"

	"rekard/internal/domain"
	"rekard/internal/middleware"
	"rekard/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	authService  *service.AuthService
	store        *service.DeckStore
	editor       *service.Editor
	statsService *service.StatsService
	logger       *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	// Active study sessions, one per user
	sessions   map[int64]*service.StudySession
	sessionMux sync.Mutex

	// Per-user locks serialising callbacks
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	store *service.DeckStore,
	editor *service.Editor,
	statsService *service.StatsService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		authService:   authService,
		store:         store,
		editor:        editor,
		statsService:  statsService,
		logger:        logger,
		states:        make(map[int64]*domain.StateData),
		sessions:      make(map[int64]*service.StudySession),
		callbackLocks: make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/search", h.handleSearch)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnDecks, h.handleDecks)
	h.bot.Handle(&btnStats, h.handleStats)
	h.bot.Handle(&btnNewDeck, h.handleNewDeck)
	h.bot.Handle(&btnReveal, h.handleReveal)
	h.bot.Handle(&btnHide, h.handleHide)
	h.bot.Handle(&btnEndSession, h.handleEndSession)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

// session returns the user's active study session, if any
func (h *Handler) session(userID int64) (*service.StudySession, bool) {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()
	s, ok := h.sessions[userID]
	return s, ok
}

func (h *Handler) setSession(userID int64, s *service.StudySession) {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()
	h.sessions[userID] = s
}

func (h *Handler) endSession(userID int64) {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()
	delete(h.sessions, userID)
}

// lockUser serialises callback processing for one user; call the returned func to release
func (h *Handler) lockUser(userID int64) func() {
	h.callbackMux.Lock()
	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	h.callbackMux.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Inline keyboard buttons
var (
	btnDecks = tele.Btn{
		Unique: "decks",
		Text:   "📚 Decks",
	}
	btnStats = tele.Btn{
		Unique: "stats",
		Text:   "📊 Stats",
	}
	btnNewDeck = tele.Btn{
		Unique: "new_deck",
		Text:   "➕ New deck",
	}
	btnReveal = tele.Btn{
		Unique: "reveal",
		Text:   "👀 Reveal",
	}
	btnHide = tele.Btn{
		Unique: "hide",
		Text:   "🙈 Hide answer",
	}
	btnEndSession = tele.Btn{
		Unique: "end_session",
		Text:   "⏹ End session",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Cancel",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnDecks),
		menu.Row(btnStats),
		menu.Row(btnNewDeck),
	)
	return menu
}

// cancelMarkup returns a keyboard with a single cancel button
func cancelMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnCancel))
	return menu
}

// render edits the callback message or sends a new one for commands
func (h *Handler) render(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return c.Send(text, markup)
	}
	if err := c.Edit(text, markup); err != nil {
		if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
			return nil // Message was already modified, just acknowledged
		}
		return c.Send(text, markup)
	}
	return c.Respond()
}

// isAuthorized reads the flag set by the auth middleware
func isAuthorized(c tele.Context) bool {
	authorized, _ := c.Get(middleware.AuthorizedKey).(bool)
	return authorized
}
