package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverInstructions = `
This server runs spaced-repetition review sessions over named flashcard decks.

Review workflow:
1. Call start_review. If the state is "empty" nothing is due; offer to add cards.
2. Call current_card and show ONLY the front to the user.
3. Let the user answer, then call show_answer and show the back.
4. Ask whether they remembered it (or judge it from their answer) and call
   record_outcome with remembered=true or false.
5. Repeat from step 2 until the state is "complete", then summarise with
   session_results.

In timed decks the answer clock stops when the timer runs out; the outcome is
still whatever you record.
`

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// newServer builds the MCP server with every tool bound to svc.
func newServer(svc *StudyService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"flashdeck",
		version,
		server.WithInstructions(serverInstructions),
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	bind := func(h toolHandler) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return h(withService(ctx, svc), request)
		}
	}

	for _, t := range tools() {
		s.AddTool(t.tool, bind(t.handler))
	}

	statsResource := mcp.NewResource(statsResourceURI, "Current deck statistics",
		mcp.WithResourceDescription("Card counts, success rate and mean FSRS retrievability of the open deck"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(statsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStatsResource(withService(ctx, svc), request)
	})
	return s
}

type toolDef struct {
	tool    mcp.Tool
	handler toolHandler
}

func tools() []toolDef {
	intervalArgs := func(prefix, what string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithNumber(prefix+"_interval", mcp.Description("Scalar of the "+what)),
			mcp.WithString(prefix+"_unit", mcp.Description("Unit of the "+what+": second, minute, hour, day, week or month")),
		}
	}
	setOptions := []mcp.ToolOption{
		mcp.WithDescription("Change the study options of the open deck. Omitted fields keep their value."),
		mcp.WithNumber("lengthening_factor", mcp.Description("Growth of the remembered interval per success, at least 1")),
		mcp.WithNumber("review_session_size", mcp.Description("Most cards in one review session")),
		mcp.WithString("timed_modus", mcp.Description("normal or timed")),
	}
	setOptions = append(setOptions, intervalArgs("initial", "interval before the first review")...)
	setOptions = append(setOptions, intervalArgs("remembered", "base interval after a success")...)
	setOptions = append(setOptions, intervalArgs("forgotten", "interval after a failure")...)
	setOptions = append(setOptions, intervalArgs("timer", "answer time limit in timed decks")...)

	return []toolDef{
		{mcp.NewTool("open_deck",
			mcp.WithDescription("Save the open deck and switch to another, creating it if it does not exist."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Deck name")),
		), handleOpenDeck},
		{mcp.NewTool("list_decks",
			mcp.WithDescription("List stored decks and the one currently open."),
		), handleListDecks},
		{mcp.NewTool("add_card",
			mcp.WithDescription("Add a card to the open deck. Fronts must be unique within a deck."),
			mcp.WithString("front", mcp.Required(), mcp.Description("Question side")),
			mcp.WithString("back", mcp.Required(), mcp.Description("Answer side")),
		), handleAddCard},
		{mcp.NewTool("edit_card",
			mcp.WithDescription("Change the front and/or back of a card. Its review history is kept."),
			mcp.WithString("front", mcp.Required(), mcp.Description("Current front of the card")),
			mcp.WithString("new_front", mcp.Description("New front")),
			mcp.WithString("new_back", mcp.Description("New back")),
		), handleEditCard},
		{mcp.NewTool("delete_card",
			mcp.WithDescription("Delete a card from the open deck."),
			mcp.WithString("front", mcp.Required(), mcp.Description("Front of the card to delete")),
		), handleDeleteCard},
		{mcp.NewTool("merge_cards",
			mcp.WithDescription("Fold a duplicate card's back into another card and delete the duplicate."),
			mcp.WithString("duplicate", mcp.Required(), mcp.Description("Front of the card to remove")),
			mcp.WithString("into", mcp.Required(), mcp.Description("Front of the card to keep")),
		), handleMergeCards},
		{mcp.NewTool("list_cards",
			mcp.WithDescription("List the cards of the open deck with their due times."),
			mcp.WithBoolean("include_backs", mcp.Description("Include the answer side")),
		), handleListCards},
		{mcp.NewTool("get_study_options",
			mcp.WithDescription("Show the study options of the open deck."),
		), handleGetStudyOptions},
		{mcp.NewTool("set_study_options", setOptions...), handleSetStudyOptions},
		{mcp.NewTool("start_review",
			mcp.WithDescription("Start a review session over the cards due now, most overdue first, in shuffled order."),
		), handleStartReview},
		{mcp.NewTool("current_card",
			mcp.WithDescription("Show the front of the current card and start its answer clock. Show ONLY the front to the user."),
		), handleCurrentCard},
		{mcp.NewTool("show_answer",
			mcp.WithDescription("Reveal the back of the current card and stop its answer clock."),
		), handleShowAnswer},
		{mcp.NewTool("record_outcome",
			mcp.WithDescription("Record whether the user remembered the revealed card and move to the next one."),
			mcp.WithBoolean("remembered", mcp.Required(), mcp.Description("True if the user remembered the answer")),
		), handleRecordOutcome},
		{mcp.NewTool("session_results",
			mcp.WithDescription("List the reviews recorded in the current session."),
		), handleSessionResults},
		{mcp.NewTool("deck_stats",
			mcp.WithDescription("Statistics of the open deck with an FSRS retention estimate."),
			mcp.WithBoolean("include_forecast", mcp.Description("Include the per-card FSRS forecast")),
		), handleDeckStats},
		{mcp.NewTool("save_deck",
			mcp.WithDescription("Write the open deck to storage."),
		), handleSaveDeck},
	}
}
