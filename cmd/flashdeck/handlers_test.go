package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/danieldreier/flashdeck/internal/storage"
	"github.com/danieldreier/flashdeck/internal/study"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupService(t *testing.T) (context.Context, *StudyService, *fakeClock) {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir(), nil)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newStudyServiceWith(store, zap.NewNop(), 1, study.WithClock(clock.Now))
	require.NoError(t, svc.App.OpenDeck("spanish"))
	t.Cleanup(func() { svc.Close() })
	return withService(context.Background(), svc), svc, clock
}

// call runs a handler and decodes its JSON text into out.
func call(t *testing.T, ctx context.Context, h toolHandler, args map[string]interface{}, out any) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := h(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out), text.Text)
	}
	return text.Text
}

func callError(t *testing.T, ctx context.Context, h toolHandler, args map[string]interface{}) string {
	t.Helper()
	var resp ErrorResponse
	call(t, ctx, h, args, &resp)
	require.NotEmpty(t, resp.Error, "expected an error response")
	return resp.Error
}

func TestHandlers_ServiceMissing(t *testing.T) {
	msg := callError(t, context.Background(), handleListCards, nil)
	assert.Equal(t, errServiceUnavailable, msg)
}

func TestHandleAddAndListCards(t *testing.T) {
	ctx, _, _ := setupService(t)

	var added CardResponse
	call(t, ctx, handleAddCard, map[string]interface{}{"front": "hola", "back": "hello"}, &added)
	assert.True(t, added.Success)

	assert.Contains(t, callError(t, ctx, handleAddCard, map[string]interface{}{"front": "hola", "back": "again"}), "already exists")
	assert.Contains(t, callError(t, ctx, handleAddCard, map[string]interface{}{"front": "adios"}), "back")

	var list CardListResponse
	call(t, ctx, handleListCards, nil, &list)
	assert.Equal(t, "spanish", list.Deck)
	require.Len(t, list.Cards, 1)
	assert.Equal(t, "hola", list.Cards[0].Front)
	assert.Empty(t, list.Cards[0].Back, "backs are hidden by default")

	call(t, ctx, handleListCards, map[string]interface{}{"include_backs": true}, &list)
	assert.Equal(t, "hello", list.Cards[0].Back)
}

func TestHandleEditDeleteMerge(t *testing.T) {
	ctx, svc, _ := setupService(t)
	require.NoError(t, svc.App.AddCard("perro", "dog"))
	require.NoError(t, svc.App.AddCard("el perro", "the dog"))

	call(t, ctx, handleEditCard, map[string]interface{}{"front": "perro", "new_back": "a dog"}, nil)
	call(t, ctx, handleEditCard, map[string]interface{}{"front": "perro", "new_front": "can"}, nil)
	callError(t, ctx, handleEditCard, map[string]interface{}{"front": "can"})
	callError(t, ctx, handleEditCard, map[string]interface{}{"front": "gato", "new_front": "cat"})

	var merged CardResponse
	call(t, ctx, handleMergeCards, map[string]interface{}{"duplicate": "el perro", "into": "can"}, &merged)
	assert.True(t, merged.Success)

	cards, err := svc.App.Cards()
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "can", cards[0].Front)
	assert.Equal(t, "a dog; the dog", cards[0].Back)

	var del DeleteCardResponse
	call(t, ctx, handleDeleteCard, map[string]interface{}{"front": "can"}, &del)
	assert.True(t, del.Removed)
	call(t, ctx, handleDeleteCard, map[string]interface{}{"front": "can"}, &del)
	assert.False(t, del.Removed)
}

func TestHandleStudyOptions(t *testing.T) {
	ctx, _, _ := setupService(t)

	var got OptionsResponse
	call(t, ctx, handleGetStudyOptions, nil, &got)
	assert.Equal(t, deck.DefaultStudyOptions(), got.StudyOptions)

	call(t, ctx, handleSetStudyOptions, map[string]interface{}{
		"review_session_size": float64(5),
		"remembered_interval": float64(2),
		"remembered_unit":     "week",
		"timed_modus":         "timed",
	}, &got)
	assert.Equal(t, 5, got.StudyOptions.ReviewSessionSize)
	assert.Equal(t, deck.Interval{Scalar: 2, Unit: deck.Week}, got.StudyOptions.RememberedInterval)
	assert.Equal(t, deck.Timed, got.StudyOptions.TimedModus)
	assert.Equal(t, deck.DefaultStudyOptions().InitialInterval, got.StudyOptions.InitialInterval)

	msg := callError(t, ctx, handleSetStudyOptions, map[string]interface{}{"lengthening_factor": 0.5})
	assert.Contains(t, msg, "invalid study options")
}

func TestHandleReviewSession(t *testing.T) {
	ctx, svc, clock := setupService(t)
	require.NoError(t, svc.App.AddCard("uno", "one"))
	require.NoError(t, svc.App.AddCard("dos", "two"))

	var resp SessionResponse
	call(t, ctx, handleStartReview, nil, &resp)
	assert.Equal(t, "empty", resp.Session.State)
	assert.NotEmpty(t, resp.Message)

	clock.Advance(time.Hour)
	call(t, ctx, handleStartReview, nil, &resp)
	assert.Equal(t, "awaiting_start", resp.Session.State)
	assert.Equal(t, 2, resp.Session.Remaining)

	callError(t, ctx, handleShowAnswer, nil)
	callError(t, ctx, handleRecordOutcome, map[string]interface{}{})

	for i := 0; i < 2; i++ {
		call(t, ctx, handleCurrentCard, nil, &resp)
		assert.Equal(t, "showing_front", resp.Session.State)
		assert.NotEmpty(t, resp.Session.Front)
		assert.Empty(t, resp.Session.Back)

		clock.Advance(3 * time.Second)
		call(t, ctx, handleShowAnswer, nil, &resp)
		assert.Equal(t, "showing_back", resp.Session.State)
		assert.NotEmpty(t, resp.Session.Back)

		call(t, ctx, handleCurrentCard, nil, &resp)
		assert.Equal(t, "showing_back", resp.Session.State, "current_card does not hide a revealed answer")

		call(t, ctx, handleRecordOutcome, map[string]interface{}{"remembered": i == 0}, &resp)
	}
	assert.Equal(t, "complete", resp.Session.State)

	var results ResultsResponse
	call(t, ctx, handleSessionResults, nil, &results)
	require.Len(t, results.Results, 2)
	assert.Equal(t, 3*time.Second, results.Results[0].Review.ThinkingTime)
	assert.True(t, results.Results[0].Review.Success)
	assert.False(t, results.Results[1].Review.Success)

	var stats StatsResponse
	call(t, ctx, handleDeckStats, map[string]interface{}{"include_forecast": true}, &stats)
	assert.Equal(t, 2, stats.Stats.TotalReviews)
	assert.Len(t, stats.Forecast, 2)
	assert.Greater(t, stats.MeanRetrievability, 0.0)
}

func TestHandleOpenAndListDecks(t *testing.T) {
	ctx, svc, _ := setupService(t)
	require.NoError(t, svc.App.AddCard("hola", "hello"))

	var opened DeckResponse
	call(t, ctx, handleOpenDeck, map[string]interface{}{"name": "french"}, &opened)
	assert.Equal(t, DeckResponse{Deck: "french", Cards: 0}, opened)

	call(t, ctx, handleOpenDeck, map[string]interface{}{"name": "spanish"}, &opened)
	assert.Equal(t, 1, opened.Cards)

	var decks DeckListResponse
	call(t, ctx, handleListDecks, nil, &decks)
	assert.Equal(t, "spanish", decks.Current)
	assert.Equal(t, []string{"french", "spanish"}, decks.Decks)

	assert.Contains(t, callError(t, ctx, handleOpenDeck, map[string]interface{}{"name": "a/b"}), "invalid deck name")
	callError(t, ctx, handleOpenDeck, nil)
}

func TestHandleSaveDeck(t *testing.T) {
	ctx, svc, _ := setupService(t)
	var resp CardResponse
	call(t, ctx, handleSaveDeck, nil, &resp)
	assert.True(t, resp.Success)
	assert.True(t, svc.Store.Exists("spanish"))
}

func TestStatsResource(t *testing.T) {
	ctx, svc, _ := setupService(t)
	require.NoError(t, svc.App.AddCard("hola", "hello"))

	contents, err := handleStatsResource(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, statsResourceURI, text.URI)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	assert.Equal(t, 1, resp.Stats.TotalCards)
	assert.Empty(t, resp.Forecast)
}

func TestToolsAreUniqueAndBound(t *testing.T) {
	seen := map[string]bool{}
	for _, td := range tools() {
		assert.False(t, seen[td.tool.Name], "duplicate tool %s", td.tool.Name)
		seen[td.tool.Name] = true
		assert.NotNil(t, td.handler, td.tool.Name)
	}
	for _, name := range []string{
		"open_deck", "list_decks", "add_card", "edit_card", "delete_card", "merge_cards",
		"list_cards", "get_study_options", "set_study_options", "start_review", "current_card",
		"show_answer", "record_outcome", "session_results", "deck_stats", "save_deck",
	} {
		assert.True(t, seen[name], "missing tool %s", name)
	}
}

func TestExportDeck(t *testing.T) {
	d, err := deck.New("export")
	require.NoError(t, err)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	d.AddCard(deck.NewCard("hola", "hello", created))
	d.AddCard(deck.NewCard("multi\tline", "first\nsecond", created))

	var buf bytes.Buffer
	require.NoError(t, exportDeck(&buf, d))
	assert.Equal(t, "hola\thello\nmulti line\tfirst second\n", buf.String())
}
