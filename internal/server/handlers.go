package server

import (
	"github.com/localrivet/ankimcp/internal/tools"
	"github.com/localrivet/gomcp/server"
)

// handleListDecks handles the list_decks MCP tool call.
func (s *MCPAnkiToolServer) handleListDecks(ctx *server.Context, req tools.EmptyRequest) (tools.DecksResponse, error) {
	s.logger.Info("Processing list_decks request")

	decks, err := s.catalog.ListDecks(s.ctx)
	if err != nil {
		return tools.DecksResponse{}, s.toolError(tools.ToolListDecks, err)
	}
	return tools.DecksResponse{Decks: decks}, nil
}

// handleCreateDeck handles the create_deck MCP tool call.
func (s *MCPAnkiToolServer) handleCreateDeck(ctx *server.Context, req tools.DeckRequest) (tools.SuccessResponse, error) {
	s.logger.Info("Processing create_deck request", "deck", req.DeckName)

	ok, err := s.catalog.CreateDeck(s.ctx, req.DeckName)
	if err != nil {
		return tools.SuccessResponse{}, s.toolError(tools.ToolCreateDeck, err)
	}
	return tools.SuccessResponse{Success: ok}, nil
}

// handleDeleteDeck handles the delete_deck MCP tool call.
func (s *MCPAnkiToolServer) handleDeleteDeck(ctx *server.Context, req tools.DeleteDeckRequest) (tools.SuccessResponse, error) {
	s.logger.Info("Processing delete_deck request", "deck", req.DeckName, "cards_too", req.CardsToo)

	ok, err := s.catalog.DeleteDeck(s.ctx, req.DeckName, req.CardsToo)
	if err != nil {
		return tools.SuccessResponse{}, s.toolError(tools.ToolDeleteDeck, err)
	}
	return tools.SuccessResponse{Success: ok}, nil
}

func (s *MCPAnkiToolServer) handleRenameDeck(ctx *server.Context, req tools.RenameDeckRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing rename_deck request", "old_name", req.OldName, "new_name", req.NewName)

	result, err := s.catalog.RenameDeck(s.ctx, req.OldName, req.NewName)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolRenameDeck, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleDeckStats(ctx *server.Context, req tools.DeckRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing deck_stats request", "deck", req.DeckName)

	result, err := s.catalog.DeckStats(s.ctx, req.DeckName)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolDeckStats, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleGetCardStats(ctx *server.Context, req tools.CardStatsRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing get_card_stats request", "card_id", req.CardID)

	result, err := s.catalog.CardStats(s.ctx, req.CardID)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolGetCardStats, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleListModels(ctx *server.Context, req tools.EmptyRequest) (tools.NamesResponse, error) {
	s.logger.Info("Processing list_models request")

	models, err := s.catalog.ListModels(s.ctx)
	if err != nil {
		return tools.NamesResponse{}, s.toolError(tools.ToolListModels, err)
	}
	return tools.NamesResponse{Names: models}, nil
}

func (s *MCPAnkiToolServer) handleModelFieldNames(ctx *server.Context, req tools.ModelFieldNamesRequest) (tools.NamesResponse, error) {
	s.logger.Info("Processing model_field_names request", "model", req.ModelName)

	fields, err := s.catalog.ModelFieldNames(s.ctx, req.ModelName)
	if err != nil {
		return tools.NamesResponse{}, s.toolError(tools.ToolModelFieldNames, err)
	}
	return tools.NamesResponse{Names: fields}, nil
}

// handleAddCard handles the add_card MCP tool call.
func (s *MCPAnkiToolServer) handleAddCard(ctx *server.Context, req tools.AddCardRequest) (tools.AddCardResponse, error) {
	s.logger.Info("Processing add_card request", "deck", req.DeckName, "model", req.ModelName, "field_count", len(req.Fields))

	id, err := s.catalog.AddCard(s.ctx, tools.NoteSpec{
		DeckName:  req.DeckName,
		ModelName: req.ModelName,
		Fields:    req.Fields,
		Tags:      req.Tags,
	})
	if err != nil {
		return tools.AddCardResponse{}, s.toolError(tools.ToolAddCard, err)
	}
	return tools.AddCardResponse{NoteID: id}, nil
}

// handleAddCards handles the add_cards MCP tool call.
func (s *MCPAnkiToolServer) handleAddCards(ctx *server.Context, req tools.AddCardsRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing add_cards request", "note_count", len(req.Notes))

	result, err := s.catalog.AddCards(s.ctx, req.Notes)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolAddCards, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

// handleDeleteCards handles the delete_cards MCP tool call.
func (s *MCPAnkiToolServer) handleDeleteCards(ctx *server.Context, req tools.NoteIDsRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing delete_cards request", "note_count", len(req.NoteIDs))

	result, err := s.catalog.DeleteCards(s.ctx, req.NoteIDs)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolDeleteCards, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleUpdateNoteFields(ctx *server.Context, req tools.UpdateNoteFieldsRequest) (tools.SuccessResponse, error) {
	s.logger.Info("Processing update_note_fields request", "note_id", req.NoteID, "field_count", len(req.Fields))

	ok, err := s.catalog.UpdateNoteFields(s.ctx, req.NoteID, req.Fields)
	if err != nil {
		return tools.SuccessResponse{}, s.toolError(tools.ToolUpdateNoteFields, err)
	}
	return tools.SuccessResponse{Success: ok}, nil
}

func (s *MCPAnkiToolServer) handleFindNotes(ctx *server.Context, req tools.FindNotesRequest) (tools.NoteIDsResponse, error) {
	s.logger.Info("Processing find_notes request", "query", req.Query)

	ids, err := s.catalog.FindNotes(s.ctx, req.Query)
	if err != nil {
		return tools.NoteIDsResponse{}, s.toolError(tools.ToolFindNotes, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return tools.NoteIDsResponse{NoteIDs: ids}, nil
}

func (s *MCPAnkiToolServer) handleGetNotesInfo(ctx *server.Context, req tools.NoteIDsRequest) (tools.NotesResponse, error) {
	s.logger.Info("Processing get_notes_info request", "note_count", len(req.NoteIDs))

	notes, err := s.catalog.NotesInfo(s.ctx, req.NoteIDs)
	if err != nil {
		return tools.NotesResponse{}, s.toolError(tools.ToolGetNotesInfo, err)
	}
	return tools.NotesResponse{Notes: notes}, nil
}

func (s *MCPAnkiToolServer) handleGetCards(ctx *server.Context, req tools.DeckRequest) (tools.NotesResponse, error) {
	s.logger.Info("Processing get_cards request", "deck", req.DeckName)

	notes, err := s.catalog.GetCards(s.ctx, req.DeckName)
	if err != nil {
		return tools.NotesResponse{}, s.toolError(tools.ToolGetCards, err)
	}
	return tools.NotesResponse{Notes: notes}, nil
}

// handleGetRecentCards handles the get_recent_cards MCP tool call.
func (s *MCPAnkiToolServer) handleGetRecentCards(ctx *server.Context, req tools.GetRecentCardsRequest) (tools.NotesResponse, error) {
	limit, err := s.catalog.RecentLimit(req.N)
	if err != nil {
		return tools.NotesResponse{}, s.toolError(tools.ToolGetRecentCards, err)
	}
	s.logger.Info("Processing get_recent_cards request", "n", limit)

	notes, err := s.catalog.RecentNotes(s.ctx, limit)
	if err != nil {
		return tools.NotesResponse{}, s.toolError(tools.ToolGetRecentCards, err)
	}
	return tools.NotesResponse{Notes: notes}, nil
}

func (s *MCPAnkiToolServer) handleSuspendCards(ctx *server.Context, req tools.CardIDsRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing suspend_cards request", "card_count", len(req.CardIDs))

	result, err := s.catalog.SuspendCards(s.ctx, req.CardIDs)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolSuspendCards, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleUnsuspendCards(ctx *server.Context, req tools.CardIDsRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing unsuspend_cards request", "card_count", len(req.CardIDs))

	result, err := s.catalog.UnsuspendCards(s.ctx, req.CardIDs)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolUnsuspendCards, err)
	}
	return tools.ResultResponse{Result: result}, nil
}

func (s *MCPAnkiToolServer) handleSetDueDate(ctx *server.Context, req tools.SetDueDateRequest) (tools.ResultResponse, error) {
	s.logger.Info("Processing set_due_date request", "card_count", len(req.CardIDs), "due", req.Due)

	result, err := s.catalog.SetDueDate(s.ctx, req.CardIDs, req.Due)
	if err != nil {
		return tools.ResultResponse{}, s.toolError(tools.ToolSetDueDate, err)
	}
	return tools.ResultResponse{Result: result}, nil
}
