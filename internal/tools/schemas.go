// Package tools defines the Anki tool catalog: tool names, the input and
// output schemas of every tool, and the operations that back them.
package tools

import "encoding/json"

const (
	ToolListDecks        = "list_decks"
	ToolCreateDeck       = "create_deck"
	ToolDeleteDeck       = "delete_deck"
	ToolRenameDeck       = "rename_deck"
	ToolDeckStats        = "deck_stats"
	ToolGetCardStats     = "get_card_stats"
	ToolListModels       = "list_models"
	ToolModelFieldNames  = "model_field_names"
	ToolAddCard          = "add_card"
	ToolAddCards         = "add_cards"
	ToolDeleteCards      = "delete_cards"
	ToolUpdateNoteFields = "update_note_fields"
	ToolFindNotes        = "find_notes"
	ToolGetNotesInfo     = "get_notes_info"
	ToolGetCards         = "get_cards"
	ToolGetRecentCards   = "get_recent_cards"
	ToolSuspendCards     = "suspend_cards"
	ToolUnsuspendCards   = "unsuspend_cards"
	ToolSetDueDate       = "set_due_date"

	// DefaultRecentLimit is the number of notes get_recent_cards returns
	// when n is not given.
	DefaultRecentLimit = 200
)

// NoteSpec describes one note to add. Keys follow AnkiConnect's note shape.
type NoteSpec struct {
	DeckName  string            `json:"deckName" description:"Deck to add the note to"`
	ModelName string            `json:"modelName" description:"Note type, e.g. Basic"`
	Fields    map[string]string `json:"fields" description:"Field name to field content"`
	Tags      []string          `json:"tags" description:"Tags to attach"`
}

// EmptyRequest is the input of tools that take no parameters.
type EmptyRequest struct{}

// DeckRequest is the input of create_deck, deck_stats and get_cards.
type DeckRequest struct {
	DeckName string `json:"deck_name" description:"Name of the deck" required:"true"`
}

// DeleteDeckRequest defines the input schema for delete_deck
type DeleteDeckRequest struct {
	DeckName string `json:"deck_name" description:"Name of the deck to delete" required:"true"`
	// CardsToo also deletes the cards in the deck. Defaults to false.
	CardsToo bool `json:"cards_too,omitempty" description:"Also delete the cards in the deck"`
}

// RenameDeckRequest defines the input schema for rename_deck
type RenameDeckRequest struct {
	OldName string `json:"old_name" description:"Current deck name" required:"true"`
	NewName string `json:"new_name" description:"New deck name" required:"true"`
}

// CardStatsRequest defines the input schema for get_card_stats
type CardStatsRequest struct {
	CardID int64 `json:"card_id" description:"Card identifier" required:"true"`
}

// ModelFieldNamesRequest defines the input schema for model_field_names
type ModelFieldNamesRequest struct {
	ModelName string `json:"model_name" description:"Note type name" required:"true"`
}

// AddCardRequest defines the input schema for add_card
type AddCardRequest struct {
	DeckName  string            `json:"deck_name" description:"Deck to add the note to" required:"true"`
	ModelName string            `json:"model_name" description:"Note type, e.g. Basic" required:"true"`
	Fields    map[string]string `json:"fields" description:"Field name to field content" required:"true"`
	Tags      []string          `json:"tags,omitempty" description:"Tags to attach"`
}

// AddCardsRequest defines the input schema for add_cards
type AddCardsRequest struct {
	Notes []NoteSpec `json:"notes" description:"Notes to add" required:"true"`
}

// NoteIDsRequest is the input of delete_cards and get_notes_info.
type NoteIDsRequest struct {
	NoteIDs []int64 `json:"note_ids" description:"Note identifiers" required:"true"`
}

// UpdateNoteFieldsRequest defines the input schema for update_note_fields
type UpdateNoteFieldsRequest struct {
	NoteID int64             `json:"note_id" description:"Note identifier" required:"true"`
	Fields map[string]string `json:"fields" description:"Field name to new content" required:"true"`
}

// FindNotesRequest defines the input schema for find_notes
type FindNotesRequest struct {
	Query string `json:"query" description:"Anki search query, e.g. deck:Spanish tag:verbs"`
}

// GetRecentCardsRequest defines the input schema for get_recent_cards
type GetRecentCardsRequest struct {
	// N is the number of notes to return. Nil selects the default of 200.
	N *int `json:"n,omitempty" description:"Number of most recent notes to return (default 200)"`
}

// CardIDsRequest is the input of suspend_cards and unsuspend_cards.
type CardIDsRequest struct {
	CardIDs []int64 `json:"card_ids" description:"Card identifiers" required:"true"`
}

// SetDueDateRequest defines the input schema for set_due_date
type SetDueDateRequest struct {
	CardIDs []int64 `json:"card_ids" description:"Card identifiers" required:"true"`
	// Due accepts AnkiConnect due strings such as "0", "3", "1-7" or "3!".
	Due string `json:"due" description:"Due string, e.g. 'tomorrow', '3', '2025-10-03'" required:"true"`
}

// DecksResponse defines the output schema for list_decks
type DecksResponse struct {
	Decks []string `json:"decks"`
}

// SuccessResponse is the output of tools whose result is coerced to a boolean.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// NamesResponse is the output of list_models and model_field_names.
type NamesResponse struct {
	Names []string `json:"names"`
}

// AddCardResponse defines the output schema for add_card. NoteID is nil
// when AnkiConnect reports no id.
type AddCardResponse struct {
	NoteID *int64 `json:"note_id"`
}

// NoteIDsResponse defines the output schema for find_notes
type NoteIDsResponse struct {
	NoteIDs []int64 `json:"note_ids"`
}

// NotesResponse is the output of get_notes_info, get_cards and get_recent_cards.
type NotesResponse struct {
	Notes json.RawMessage `json:"notes"`
}

// ResultResponse carries an AnkiConnect result through unchanged.
type ResultResponse struct {
	Result json.RawMessage `json:"result"`
}
