package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/danieldreier/flashdeck/internal/fsrs"
	"github.com/danieldreier/flashdeck/internal/study"
	"github.com/mark3labs/mcp-go/mcp"
)

type ctxKey string

const serviceKey ctxKey = "service"

func withService(ctx context.Context, s *StudyService) context.Context {
	return context.WithValue(ctx, serviceKey, s)
}

func serviceFrom(ctx context.Context) (*StudyService, bool) {
	s, ok := ctx.Value(serviceKey).(*StudyService)
	return s, ok && s != nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// errorResult reports a user-facing failure as tool text, not a protocol error.
func errorResult(format string, args ...any) (*mcp.CallToolResult, error) {
	return jsonResult(ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

const errServiceUnavailable = "Service not available"

func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	v, ok := request.Params.Arguments[name].(string)
	return v, ok
}

func numberArg(request mcp.CallToolRequest, name string) (float64, bool) {
	v, ok := request.Params.Arguments[name].(float64)
	return v, ok
}

func boolArg(request mcp.CallToolRequest, name string) (bool, bool) {
	v, ok := request.Params.Arguments[name].(bool)
	return v, ok
}

func handleOpenDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	name, ok := stringArg(request, "name")
	if !ok {
		return errorResult("Missing required parameter: name")
	}
	if err := s.App.OpenDeck(name); err != nil {
		return errorResult("Error opening deck: %v", err)
	}
	cards, err := s.App.Cards()
	if err != nil {
		return errorResult("Error listing cards: %v", err)
	}
	return jsonResult(DeckResponse{Deck: s.App.DeckName(), Cards: len(cards)})
}

func handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	decks, err := s.App.ListDecks()
	if err != nil {
		return errorResult("Error listing decks: %v", err)
	}
	return jsonResult(DeckListResponse{Current: s.App.DeckName(), Decks: decks})
}

func handleAddCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	front, ok := stringArg(request, "front")
	if !ok {
		return errorResult("Missing required parameter: front")
	}
	back, ok := stringArg(request, "back")
	if !ok {
		return errorResult("Missing required parameter: back")
	}
	if err := s.App.AddCard(front, back); err != nil {
		return errorResult("Error adding card: %v", err)
	}
	return jsonResult(CardResponse{Success: true, Message: fmt.Sprintf("Card %q added", front)})
}

// handleEditCard keeps the current front or back when the new value is omitted.
func handleEditCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	front, ok := stringArg(request, "front")
	if !ok {
		return errorResult("Missing required parameter: front")
	}
	newFront, hasFront := stringArg(request, "new_front")
	newBack, hasBack := stringArg(request, "new_back")
	if !hasFront && !hasBack {
		return errorResult("Nothing to change: pass new_front or new_back")
	}
	if !hasFront {
		newFront = front
	}
	if !hasBack {
		cards, err := s.App.Cards()
		if err != nil {
			return errorResult("Error listing cards: %v", err)
		}
		found := false
		for _, c := range cards {
			if c.Front == front {
				newBack, found = c.Back, true
				break
			}
		}
		if !found {
			return errorResult("Error editing card: %v: %q", study.ErrCardMissing, front)
		}
	}
	if err := s.App.EditCard(front, newFront, newBack); err != nil {
		return errorResult("Error editing card: %v", err)
	}
	return jsonResult(CardResponse{Success: true, Message: fmt.Sprintf("Card %q updated", newFront)})
}

func handleDeleteCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	front, ok := stringArg(request, "front")
	if !ok {
		return errorResult("Missing required parameter: front")
	}
	removed, err := s.App.RemoveCard(front)
	if err != nil {
		return errorResult("Error deleting card: %v", err)
	}
	msg := fmt.Sprintf("Card %q deleted", front)
	if !removed {
		msg = fmt.Sprintf("No card %q in deck", front)
	}
	return jsonResult(DeleteCardResponse{Removed: removed, Message: msg})
}

func handleMergeCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	duplicate, ok := stringArg(request, "duplicate")
	if !ok {
		return errorResult("Missing required parameter: duplicate")
	}
	into, ok := stringArg(request, "into")
	if !ok {
		return errorResult("Missing required parameter: into")
	}
	if err := s.App.MergeCards(duplicate, into); err != nil {
		return errorResult("Error merging cards: %v", err)
	}
	return jsonResult(CardResponse{Success: true, Message: fmt.Sprintf("Card %q merged into %q", duplicate, into)})
}

// handleListCards hides the backs unless include_backs is set.
func handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	cards, err := s.App.Cards()
	if err != nil {
		return errorResult("Error listing cards: %v", err)
	}
	if backs, _ := boolArg(request, "include_backs"); !backs {
		for i := range cards {
			cards[i].Back = ""
		}
	}
	return jsonResult(CardListResponse{Deck: s.App.DeckName(), Cards: cards})
}

func handleGetStudyOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	opts, err := s.App.StudyOptions()
	if err != nil {
		return errorResult("Error reading study options: %v", err)
	}
	return jsonResult(OptionsResponse{Deck: s.App.DeckName(), StudyOptions: opts})
}

// applyInterval overrides the scalar and unit of iv from request arguments.
func applyInterval(request mcp.CallToolRequest, prefix string, iv *deck.Interval) {
	if v, ok := numberArg(request, prefix+"_interval"); ok {
		iv.Scalar = v
	}
	if u, ok := stringArg(request, prefix+"_unit"); ok {
		iv.Unit = deck.TimeUnit(u)
	}
}

// handleSetStudyOptions starts from the current options and changes only the
// arguments that were passed.
func handleSetStudyOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	opts, err := s.App.StudyOptions()
	if err != nil {
		return errorResult("Error reading study options: %v", err)
	}
	applyInterval(request, "initial", &opts.InitialInterval)
	applyInterval(request, "remembered", &opts.RememberedInterval)
	applyInterval(request, "forgotten", &opts.ForgottenInterval)
	applyInterval(request, "timer", &opts.TimerInterval)
	if v, ok := numberArg(request, "lengthening_factor"); ok {
		opts.LengtheningFactor = v
	}
	if v, ok := numberArg(request, "review_session_size"); ok {
		opts.ReviewSessionSize = int(v)
	}
	if v, ok := stringArg(request, "timed_modus"); ok {
		opts.TimedModus = deck.TimedModus(v)
	}

	if err := s.App.SetStudyOptions(opts); err != nil {
		return errorResult("Error setting study options: %v", err)
	}
	return jsonResult(OptionsResponse{Deck: s.App.DeckName(), StudyOptions: opts})
}

func handleStartReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	view, err := s.App.StartReview()
	if err != nil {
		return errorResult("Error starting review: %v", err)
	}
	resp := SessionResponse{Session: view}
	if view.State == "empty" {
		resp.Message = "No cards are due for review"
	}
	return jsonResult(resp)
}

// handleCurrentCard shows the front of the current card. When the session is
// past that point the current view is returned with an explanation.
func handleCurrentCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	view, err := s.App.ShowFront()
	if errors.Is(err, study.ErrWrongState) {
		view, err = s.App.SessionView()
		if err != nil {
			return errorResult("Error reading session: %v", err)
		}
		return jsonResult(SessionResponse{Session: view, Message: messageFor(view.State)})
	}
	if err != nil {
		return errorResult("Error showing card: %v", err)
	}
	return jsonResult(SessionResponse{Session: view})
}

func messageFor(state string) string {
	switch state {
	case "showing_back":
		return "The answer is showing; record an outcome to continue"
	case "complete":
		return "The review session is complete"
	case "empty":
		return "No cards are due for review"
	}
	return ""
}

func handleShowAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	view, err := s.App.ShowAnswer()
	if err != nil {
		return errorResult("Error showing answer: %v", err)
	}
	return jsonResult(SessionResponse{Session: view})
}

func handleRecordOutcome(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	remembered, ok := boolArg(request, "remembered")
	if !ok {
		return errorResult("Missing required parameter: remembered")
	}
	view, err := s.App.RecordOutcome(remembered)
	if err != nil {
		return errorResult("Error recording outcome: %v", err)
	}
	return jsonResult(SessionResponse{Session: view, Message: messageFor(view.State)})
}

func handleSessionResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	results, err := s.App.SessionResults()
	if err != nil {
		return errorResult("Error reading results: %v", err)
	}
	return jsonResult(ResultsResponse{Deck: s.App.DeckName(), Results: results})
}

func deckStats(s *StudyService, withForecast bool) (StatsResponse, error) {
	stats, err := s.App.Stats()
	if err != nil {
		return StatsResponse{}, err
	}
	forecast, err := s.App.Forecast()
	if err != nil {
		return StatsResponse{}, err
	}
	resp := StatsResponse{
		Deck:               s.App.DeckName(),
		Stats:              stats,
		MeanRetrievability: fsrs.MeanRetrievability(forecast),
	}
	if withForecast {
		resp.Forecast = forecast
	}
	return resp, nil
}

func handleDeckStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	withForecast, _ := boolArg(request, "include_forecast")
	resp, err := deckStats(s, withForecast)
	if err != nil {
		return errorResult("Error computing stats: %v", err)
	}
	return jsonResult(resp)
}

func handleSaveDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return errorResult(errServiceUnavailable)
	}
	if err := s.App.Save(); err != nil {
		return errorResult("Error saving deck: %v", err)
	}
	return jsonResult(CardResponse{Success: true, Message: fmt.Sprintf("Deck %q saved", s.App.DeckName())})
}

const statsResourceURI = "deck://current/stats"

func handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s, ok := serviceFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("service not available")
	}
	resp, err := deckStats(s, false)
	if err != nil {
		return nil, fmt.Errorf("error computing stats: %w", err)
	}
	jsonBytes, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statsResourceURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
