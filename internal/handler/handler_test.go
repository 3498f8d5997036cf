package handler

import (
	"fmt"
	"strings"
	"testing"

	"rekard/internal/domain"
	"rekard/internal/middleware"
	"rekard/internal/service"
	"rekard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 42

type testEnv struct {
	h     *Handler
	store *service.DeckStore
	repo  *testutil.MemoryDeckRepository
	users *testutil.MockUserRepository
}

func newTestHandler(t *testing.T, decks ...domain.Deck) *testEnv {
	t.Helper()
	logger := testutil.NewTestLogger()
	repo := testutil.NewMemoryDeckRepository(decks...)
	store := service.NewDeckStore(repo, logger)
	store.Load()
	users := new(testutil.MockUserRepository)

	h := NewHandler(
		nil,
		service.NewAuthService(users, "secret", logger),
		store,
		service.NewEditor(),
		service.NewStatsService(store, logger),
		logger,
	)
	return &testEnv{h: h, store: store, repo: repo, users: users}
}

func sendText(msg string) *testutil.FakeContext {
	return testutil.NewTextContext(testUser, msg).Authorized(middleware.AuthorizedKey, true)
}

func press(data string) *testutil.FakeContext {
	return testutil.NewCallbackContext(testUser, "", data).Authorized(middleware.AuthorizedKey, true)
}

// findButton returns the callback data of the first button whose data contains part
func findButton(t *testing.T, c *testutil.FakeContext, part string) string {
	t.Helper()
	for _, data := range c.Buttons() {
		if strings.Contains(data, part) {
			return data
		}
	}
	require.Failf(t, "button not found", "no button with %q in %q", part, c.Buttons())
	return ""
}

func cardByID(t *testing.T, store *service.DeckStore, deckID, cardID string) domain.Card {
	t.Helper()
	deck, ok := store.Deck(deckID)
	require.True(t, ok, "deck %s", deckID)
	idx := deck.CardIndex(cardID)
	require.GreaterOrEqual(t, idx, 0, "card %s", cardID)
	return deck.Cards[idx]
}

func TestHandler_StartUnauthorized(t *testing.T) {
	env := newTestHandler(t)
	ctx := testutil.NewTextContext(testUser, "/start").Authorized(middleware.AuthorizedKey, false)

	require.NoError(t, env.h.handleStart(ctx))

	assert.Equal(t, []string{passwordPromptText}, ctx.Sent)
}

func TestHandler_StartShowsMenu(t *testing.T) {
	env := newTestHandler(t)
	ctx := sendText("/start")

	require.NoError(t, env.h.handleStart(ctx))

	assert.Equal(t, mainMenuText, ctx.LastText())
	assert.Equal(t, []string{"\fdecks", "\fstats", "\fnew_deck"}, ctx.Buttons())
}

func TestHandler_PasswordFlow(t *testing.T) {
	env := newTestHandler(t)
	env.users.On("AuthorizeUser", testUser).Return(nil).Once()

	wrong := testutil.NewTextContext(testUser, "guess").Authorized(middleware.AuthorizedKey, false)
	require.NoError(t, env.h.handleText(wrong))
	assert.Equal(t, []string{"🚫 Wrong password"}, wrong.Sent)

	right := testutil.NewTextContext(testUser, " secret ").Authorized(middleware.AuthorizedKey, false)
	require.NoError(t, env.h.handleText(right))
	assert.Contains(t, right.LastText(), "Access granted")

	env.users.AssertExpectations(t)
}

func TestHandler_CreateDeckAndAddCards(t *testing.T) {
	env := newTestHandler(t)

	require.NoError(t, env.h.handleCallback(press("\fnew_deck")))
	assert.Equal(t, domain.StateWaitingDeckName, env.h.GetState(testUser).State)

	named := sendText("Spanish")
	require.NoError(t, env.h.handleText(named))
	decks := env.store.Decks()
	require.Len(t, decks, 1)
	deck := decks[0]
	assert.Equal(t, "Spanish", deck.Name)
	assert.Equal(t, domain.DefaultDeckIcon, deck.Icon)
	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)
	assert.Contains(t, named.LastText(), "📖 Spanish")

	require.NoError(t, env.h.handleCallback(press(findButton(t, named, "add_"))))
	state := env.h.GetState(testUser)
	assert.Equal(t, domain.StateWaitingQuestion, state.State)
	assert.Equal(t, deck.ID, state.DeckID)

	for _, qa := range [][2]string{{"hola", "hello"}, {"adiós", "goodbye"}} {
		require.NoError(t, env.h.handleText(sendText(qa[0])))
		assert.Equal(t, domain.StateWaitingAnswer, env.h.GetState(testUser).State)

		saved := sendText(qa[1])
		require.NoError(t, env.h.handleText(saved))
		assert.Contains(t, saved.LastText(), "Saved")
		assert.Equal(t, domain.StateWaitingQuestion, env.h.GetState(testUser).State)
	}

	got, ok := env.store.Deck(deck.ID)
	require.True(t, ok)
	require.Len(t, got.Cards, 2)
	assert.Equal(t, "adiós", got.Cards[0].Question, "newest card first")
	assert.Equal(t, "hello", got.Cards[1].Answer)
	for _, c := range got.Cards {
		assert.Equal(t, domain.BoxDontKnow, c.Box)
		assert.Nil(t, c.LastReviewed)
	}

	persisted := env.repo.Saved()
	require.Len(t, persisted, 1)
	assert.Len(t, persisted[0].Cards, 2)
}

func TestHandler_AddCardToRemovedDeck(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d"))
	env.h.SetState(testUser, &domain.StateData{
		State:           domain.StateWaitingAnswer,
		DeckID:          "d",
		CurrentQuestion: "q",
	})
	env.store.RemoveDeck("d")

	ctx := sendText("a")
	require.NoError(t, env.h.handleText(ctx))

	assert.Contains(t, ctx.LastText(), "no longer exists")
	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)
}

func TestHandler_StudySession(t *testing.T) {
	deck := testutil.NewTestDeck("d",
		testutil.NewTestCard("C", domain.BoxDontKnow, testutil.At(2)),
		testutil.NewTestCard("B", domain.BoxDontKnow, testutil.At(1)),
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("X", domain.BoxKnow, nil),
	)
	env := newTestHandler(t, deck)

	start := press("box_d_1")
	require.NoError(t, env.h.handleCallback(start))
	assert.Contains(t, start.LastText(), "❓ question A")
	assert.Contains(t, start.LastText(), "Left: 3")
	assert.Equal(t, []string{"\freveal", "\fend_session"}, start.Buttons())

	for _, id := range []string{"A", "B", "C"} {
		reveal := press("\freveal")
		require.NoError(t, env.h.handleCallback(reveal))
		assert.Contains(t, reveal.LastText(), "💡 answer "+id)
		assert.Equal(t,
			[]string{
				"\fjudge_" + id + "_1", "\fjudge_" + id + "_2", "\fjudge_" + id + "_3", "\fjudge_" + id + "_4",
				"\fhide", "\fend_session",
			},
			reveal.Buttons())

		judged := press("\fjudge_" + id + "_3")
		require.NoError(t, env.h.handleCallback(judged))
		if id != "C" {
			assert.NotContains(t, judged.LastText(), "💡")
		}
	}

	_, active := env.h.session(testUser)
	assert.False(t, active, "finished session is dropped")

	got, _ := env.store.Deck("d")
	for _, c := range got.Cards {
		if c.ID == "X" {
			assert.Equal(t, domain.BoxKnow, c.Box)
			continue
		}
		assert.Equal(t, domain.BoxKindOfKnow, c.Box, c.ID)
		assert.NotNil(t, c.LastReviewed, c.ID)
	}
}

func TestHandler_StudySessionFinishedMessage(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
	))

	require.NoError(t, env.h.handleCallback(press("box_d_1")))
	require.NoError(t, env.h.handleCallback(press("\freveal")))
	done := press("\fjudge_A_3")
	require.NoError(t, env.h.handleCallback(done))

	assert.Contains(t, done.LastText(), "Session finished, 1 card reviewed.")
	findButton(t, done, "deck_d")
}

func TestHandler_StudyEmptyBox(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d"))

	ctx := press("box_d_2")
	require.NoError(t, env.h.handleCallback(ctx))

	assert.Contains(t, ctx.LastText(), "Nothing to study here.")
	_, active := env.h.session(testUser)
	assert.False(t, active)
}

func TestHandler_JudgeWithoutSession(t *testing.T) {
	env := newTestHandler(t)

	ctx := press("judge_A_3")
	require.NoError(t, env.h.handleCallback(ctx))

	require.Len(t, ctx.Answered, 1)
	assert.Equal(t, "No active session", ctx.Answered[0].Text)
}

func TestHandler_RepeatedJudgeTapIsStale(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("B", domain.BoxDontKnow, testutil.At(1)),
	))

	require.NoError(t, env.h.handleCallback(press("box_d_1")))
	reveal := press("\freveal")
	require.NoError(t, env.h.handleCallback(reveal))
	know := findButton(t, reveal, "judge_A_3")

	first := press(know)
	require.NoError(t, env.h.handleCallback(first))
	assert.Contains(t, first.LastText(), "❓ question B")

	again := press(know)
	require.NoError(t, env.h.handleCallback(again))
	require.Len(t, again.Answered, 1)
	assert.Equal(t, staleJudgmentText, again.Answered[0].Text)
	assert.Empty(t, again.Replies)

	b := cardByID(t, env.store, "d", "B")
	assert.Equal(t, domain.BoxDontKnow, b.Box, "B was never revealed")
	assert.True(t, testutil.At(1).Equal(*b.LastReviewed))

	session, ok := env.h.session(testUser)
	require.True(t, ok)
	assert.Equal(t, service.SessionPresenting, session.State())
}

func TestHandler_JudgeBeforeRevealIsStale(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxKnow, nil),
	))

	require.NoError(t, env.h.handleCallback(press("box_d_3")))
	ctx := press("judge_A_1")
	require.NoError(t, env.h.handleCallback(ctx))

	require.Len(t, ctx.Answered, 1)
	assert.Equal(t, staleJudgmentText, ctx.Answered[0].Text)
	a := cardByID(t, env.store, "d", "A")
	assert.Equal(t, domain.BoxKnow, a.Box)
	assert.Nil(t, a.LastReviewed)
}

func TestHandler_JudgeOtherCardIsStale(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("B", domain.BoxDontKnow, testutil.At(1)),
	))

	require.NoError(t, env.h.handleCallback(press("box_d_1")))
	require.NoError(t, env.h.handleCallback(press("\freveal")))
	ctx := press("judge_B_3")
	require.NoError(t, env.h.handleCallback(ctx))

	assert.Equal(t, staleJudgmentText, ctx.Answered[0].Text)
	assert.Equal(t, domain.BoxDontKnow, cardByID(t, env.store, "d", "A").Box)
	assert.Equal(t, domain.BoxDontKnow, cardByID(t, env.store, "d", "B").Box)
}

func TestHandler_HideAnswer(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
	))
	require.NoError(t, env.h.handleCallback(press("box_d_1")))
	require.NoError(t, env.h.handleCallback(press("\freveal")))

	hide := press("\fhide")
	require.NoError(t, env.h.handleCallback(hide))

	assert.Contains(t, hide.LastText(), "❓ question A")
	assert.NotContains(t, hide.LastText(), "💡")
	assert.Equal(t, []string{"\freveal", "\fend_session"}, hide.Buttons())
	assert.Nil(t, cardByID(t, env.store, "d", "A").LastReviewed, "hiding does not judge")

	again := press("\fhide")
	require.NoError(t, env.h.handleCallback(again))
	assert.Empty(t, again.Replies)
}

func TestHandler_EndSession(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
	))
	require.NoError(t, env.h.handleCallback(press("box_d_1")))

	ctx := press("\fend_session")
	require.NoError(t, env.h.handleCallback(ctx))

	assert.Contains(t, ctx.LastText(), "📖 deck d")
	_, active := env.h.session(testUser)
	assert.False(t, active)
	got, _ := env.store.Deck("d")
	assert.Nil(t, got.Cards[0].LastReviewed, "ending does not judge")
}

func TestHandler_DeleteDeck(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d", testutil.NewTestCard("A", 1, nil)))

	ask := press("del_d")
	require.NoError(t, env.h.handleCallback(ask))
	assert.Contains(t, ask.LastText(), "Delete “deck d” and its 1 card?")
	_, stillThere := env.store.Deck("d")
	assert.True(t, stillThere)

	confirm := press(findButton(t, ask, "delok_d"))
	require.NoError(t, env.h.handleCallback(confirm))
	assert.Empty(t, env.store.Decks())
	assert.Equal(t, deckListText(nil), confirm.LastText())
}

func TestHandler_UnknownDeck(t *testing.T) {
	env := newTestHandler(t)

	for _, data := range []string{"deck_nope", "del_nope", "add_nope", "box_nope_1", "cards_nope_0", "rename_nope"} {
		ctx := press(data)
		require.NoError(t, env.h.handleCallback(ctx))
		require.Len(t, ctx.Answered, 1, data)
		assert.Equal(t, "Deck not found", ctx.Answered[0].Text, data)
	}
}

func TestHandler_CancelReturnsToDeck(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d"))
	env.h.SetState(testUser, &domain.StateData{State: domain.StateWaitingQuestion, DeckID: "d"})

	ctx := press("\fcancel")
	require.NoError(t, env.h.handleCallback(ctx))

	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)
	assert.Contains(t, ctx.LastText(), "📖 deck d")
}

func TestHandler_Search(t *testing.T) {
	env := newTestHandler(t,
		testutil.NewTestDeck("a", testutil.NewTestCard("1", 1, nil)),
		testutil.NewTestDeck("b"),
	)

	ctx := sendText("/search QUESTION 1")
	require.NoError(t, env.h.handleSearch(ctx))

	assert.Equal(t, searchText("QUESTION 1", []domain.Deck{{}}), ctx.LastText())
	findButton(t, ctx, "deck_a")

	empty := sendText("/search")
	require.NoError(t, env.h.handleSearch(empty))
	assert.Contains(t, empty.LastText(), "Usage")
}

func TestHandler_Stats(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("a",
		testutil.NewTestCard("1", domain.BoxDontKnow, nil),
		testutil.NewTestCard("2", domain.BoxKnow, nil),
	))

	ctx := press("\fstats")
	require.NoError(t, env.h.handleCallback(ctx))

	assert.Contains(t, ctx.LastText(), "Cards: 2")
	assert.Contains(t, ctx.LastText(), "Box 3 — Know: 1")
}

func TestHandler_IdleText(t *testing.T) {
	env := newTestHandler(t)

	ctx := sendText("hello")
	require.NoError(t, env.h.handleText(ctx))

	assert.Contains(t, ctx.LastText(), "Use the menu")
	assert.Empty(t, env.store.Decks())
}

func TestHandler_UnknownCard(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d"))

	for _, data := range []string{"card_nope", "edit_nope", "rmcard_nope", "setbox_nope_2"} {
		ctx := press(data)
		require.NoError(t, env.h.handleCallback(ctx))
		require.Len(t, ctx.Answered, 1, data)
		assert.Equal(t, "Card not found", ctx.Answered[0].Text, data)
	}
}

func TestHandler_CardListAndDetail(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("B", domain.BoxKnow, testutil.At(1)),
	))

	deck := press("deck_d")
	require.NoError(t, env.h.handleCallback(deck))
	list := press(findButton(t, deck, "cards_d_0"))
	require.NoError(t, env.h.handleCallback(list))
	assert.Equal(t, "📝 deck d · 2 cards", list.LastText())
	assert.Equal(t, []string{"\fcard_A", "\fcard_B", "\fadd_d", "\fdeck_d"}, list.Buttons())

	detail := press("\fcard_B")
	require.NoError(t, env.h.handleCallback(detail))
	assert.Equal(t, cardDetailText(cardByID(t, env.store, "d", "B")), detail.LastText())
	assert.Equal(t,
		[]string{"\fedit_B", "\frmcard_B", "\fsetbox_B_1", "\fsetbox_B_2", "\fcards_d_0"},
		detail.Buttons())
}

func TestHandler_CardListPagination(t *testing.T) {
	cards := make([]domain.Card, 0, 10)
	for i := 0; i < 10; i++ {
		cards = append(cards, testutil.NewTestCard(fmt.Sprintf("c%d", i), domain.BoxDontKnow, nil))
	}
	env := newTestHandler(t, testutil.NewTestDeck("d", cards...))

	first := press("cards_d_0")
	require.NoError(t, env.h.handleCallback(first))
	assert.Contains(t, first.LastText(), "Page 1/2")
	assert.Len(t, first.Buttons(), cardsPerPage+3)
	next := findButton(t, first, "cards_d_1")

	second := press(next)
	require.NoError(t, env.h.handleCallback(second))
	assert.Contains(t, second.LastText(), "Page 2/2")
	assert.Equal(t,
		[]string{"\fcard_c8", "\fcard_c9", "\fcards_d_0", "\fadd_d", "\fdeck_d"},
		second.Buttons())
}

func TestHandler_EditCard(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("B", domain.BoxKnow, testutil.At(1)),
	))

	require.NoError(t, env.h.handleCallback(press("edit_B")))
	state := env.h.GetState(testUser)
	assert.Equal(t, domain.StateEditingQuestion, state.State)
	assert.Equal(t, "B", state.CardID)
	assert.Equal(t, "d", state.DeckID)

	question := sendText("  new question ")
	require.NoError(t, env.h.handleText(question))
	assert.Equal(t, domain.StateEditingAnswer, env.h.GetState(testUser).State)
	assert.Contains(t, question.LastText(), "Now: answer B")

	blank := sendText("   ")
	require.NoError(t, env.h.handleText(blank))
	assert.Contains(t, blank.LastText(), "answer can't be empty")
	assert.Equal(t, domain.StateEditingAnswer, env.h.GetState(testUser).State)

	answer := sendText("new answer")
	require.NoError(t, env.h.handleText(answer))

	b := cardByID(t, env.store, "d", "B")
	assert.Equal(t, "new question", b.Question)
	assert.Equal(t, "new answer", b.Answer)
	assert.Equal(t, domain.BoxKnow, b.Box, "editing keeps the box")
	assert.True(t, testutil.At(1).Equal(*b.LastReviewed), "editing is not a review")
	assert.Equal(t, cardDetailText(b), answer.LastText())
	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)

	persisted := env.repo.Saved()
	require.Len(t, persisted, 1)
	assert.Equal(t, "new answer", persisted[0].Cards[persisted[0].CardIndex("B")].Answer)
}

func TestHandler_EditRemovedCard(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d", testutil.NewTestCard("A", 1, nil)))
	env.h.SetState(testUser, &domain.StateData{
		State:           domain.StateEditingAnswer,
		DeckID:          "d",
		CardID:          "A",
		CurrentQuestion: "q",
	})
	env.store.RemoveCard("A", "d")

	ctx := sendText("a")
	require.NoError(t, env.h.handleText(ctx))

	assert.Contains(t, ctx.LastText(), "no longer exists")
	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)
}

func TestHandler_RemoveCard(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
		testutil.NewTestCard("B", domain.BoxDontKnow, nil),
	))

	ctx := press("rmcard_A")
	require.NoError(t, env.h.handleCallback(ctx))

	deck, _ := env.store.Deck("d")
	require.Len(t, deck.Cards, 1)
	assert.Equal(t, "B", deck.Cards[0].ID)
	assert.Equal(t, "📝 deck d · 1 card", ctx.LastText())
	assert.Len(t, env.repo.Saved()[0].Cards, 1)
}

func TestHandler_SetBox(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d",
		testutil.NewTestCard("A", domain.BoxDontKnow, nil),
	))

	ctx := press("setbox_A_3")
	require.NoError(t, env.h.handleCallback(ctx))

	a := cardByID(t, env.store, "d", "A")
	assert.Equal(t, domain.BoxKnow, a.Box)
	assert.NotNil(t, a.LastReviewed)
	assert.Contains(t, ctx.LastText(), "Box 3 — Know")
	assert.Contains(t, ctx.Buttons(), "\fsetbox_A_1")
	assert.NotContains(t, ctx.Buttons(), "\fsetbox_A_3")
}

func TestHandler_RenameDeck(t *testing.T) {
	env := newTestHandler(t, testutil.NewTestDeck("d", testutil.NewTestCard("A", domain.BoxKnow, nil)))

	require.NoError(t, env.h.handleCallback(press("rename_d")))
	assert.Equal(t, domain.StateRenamingDeck, env.h.GetState(testUser).State)

	blank := sendText("  ")
	require.NoError(t, env.h.handleText(blank))
	assert.Contains(t, blank.LastText(), "name can't be empty")
	assert.Equal(t, domain.StateRenamingDeck, env.h.GetState(testUser).State)

	renamed := sendText("  Verbs ")
	require.NoError(t, env.h.handleText(renamed))

	deck, ok := env.store.Deck("d")
	require.True(t, ok)
	assert.Equal(t, "Verbs", deck.Name)
	assert.Equal(t, domain.DefaultDeckIcon, deck.Icon)
	assert.Len(t, deck.Cards, 1)
	assert.Contains(t, renamed.LastText(), "📖 Verbs")
	assert.Equal(t, domain.StateIdle, env.h.GetState(testUser).State)
	assert.Equal(t, "Verbs", env.repo.Saved()[0].Name)
}
