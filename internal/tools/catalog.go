package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/localrivet/ankimcp/internal/ankiconnect"
	"github.com/localrivet/ankimcp/internal/errortypes"
)

// Entry describes one tool of the catalog.
type Entry struct {
	Name        string
	Description string
	// Actions lists the AnkiConnect actions the tool may call, in order.
	Actions []string
}

var entries = []Entry{
	{ToolListDecks, "List the names of all decks", []string{"deckNames"}},
	{ToolCreateDeck, "Create a deck. Returns whether AnkiConnect reported success", []string{"createDeck"}},
	{ToolDeleteDeck, "Delete a deck, optionally with its cards. Returns whether AnkiConnect reported success", []string{"deleteDecks"}},
	{ToolRenameDeck, "Rename a deck", []string{"renameDeck"}},
	{ToolDeckStats, "Return statistics for a deck", []string{"getDeckStats"}},
	{ToolGetCardStats, "Return statistics for a card", []string{"cardStats"}},
	{ToolListModels, "List the names of all note types", []string{"modelNames"}},
	{ToolModelFieldNames, "List the field names of a note type", []string{"modelFieldNames"}},
	{ToolAddCard, "Add a note and return its id", []string{"addNote"}},
	{ToolAddCards, "Add several notes at once. Returns one id or null per note", []string{"addNotes"}},
	{ToolDeleteCards, "Delete notes by id. An empty list returns false without deleting anything", []string{"deleteNotes"}},
	{ToolUpdateNoteFields, "Update the fields of a note. Returns whether AnkiConnect reported success", []string{"updateNoteFields"}},
	{ToolFindNotes, "Find note ids matching an Anki search query", []string{"findNotes"}},
	{ToolGetNotesInfo, "Return fields, tags and metadata for notes", []string{"notesInfo"}},
	{ToolGetCards, "Return every note of a deck with its fields and tags", []string{"findNotes", "notesInfo"}},
	{ToolGetRecentCards, "Return the n most recently created notes (default 200)", []string{"findNotes", "notesInfo"}},
	{ToolSuspendCards, "Suspend cards by id", []string{"suspendCards"}},
	{ToolUnsuspendCards, "Unsuspend cards by id", []string{"unsuspendCards"}},
	{ToolSetDueDate, "Set the due date of cards. Due accepts strings like 'tomorrow', '3' or '2025-10-03'", []string{"setDueDate"}},
}

// Entries returns a copy of the catalog table.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Actions = append([]string(nil), e.Actions...)
		out[i] = e
	}
	return out
}

// Lookup returns the entry registered under name.
func Lookup(name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Options tune the catalog.
type Options struct {
	// DefaultRecentLimit applies when get_recent_cards omits n.
	// Zero selects DefaultRecentLimit.
	DefaultRecentLimit int
	// MaxRecentLimit caps n for get_recent_cards. Zero means no cap.
	MaxRecentLimit int
}

// Catalog implements every tool on top of an AnkiConnect invoker.
type Catalog struct {
	anki          ankiconnect.Invoker
	defaultRecent int
	maxRecent     int
}

// NewCatalog creates a Catalog that sends every request through anki.
func NewCatalog(anki ankiconnect.Invoker, opts Options) *Catalog {
	defaultRecent := opts.DefaultRecentLimit
	if defaultRecent <= 0 {
		defaultRecent = DefaultRecentLimit
	}
	return &Catalog{
		anki:          anki,
		defaultRecent: defaultRecent,
		maxRecent:     opts.MaxRecentLimit,
	}
}

var (
	emptyList = json.RawMessage(`[]`)
	falseJSON = json.RawMessage(`false`)
)

// ListDecks returns every deck name.
func (c *Catalog) ListDecks(ctx context.Context) ([]string, error) {
	var decks []string
	if err := ankiconnect.Decode(ctx, c.anki, "deckNames", nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// CreateDeck creates deckName. AnkiConnect answers with the deck id.
func (c *Catalog) CreateDeck(ctx context.Context, deckName string) (bool, error) {
	return c.invokeBool(ctx, "createDeck", map[string]any{"deck": deckName})
}

// DeleteDeck deletes deckName, and its cards when cardsToo is set.
func (c *Catalog) DeleteDeck(ctx context.Context, deckName string, cardsToo bool) (bool, error) {
	return c.invokeBool(ctx, "deleteDecks", map[string]any{
		"decks":    []string{deckName},
		"cardsToo": cardsToo,
	})
}

// RenameDeck renames oldName to newName.
func (c *Catalog) RenameDeck(ctx context.Context, oldName, newName string) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "renameDeck", map[string]any{
		"oldName": oldName,
		"newName": newName,
	})
}

// DeckStats returns the statistics of deckName.
func (c *Catalog) DeckStats(ctx context.Context, deckName string) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "getDeckStats", map[string]any{"decks": []string{deckName}})
}

// CardStats returns the statistics of one card.
func (c *Catalog) CardStats(ctx context.Context, cardID int64) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "cardStats", map[string]any{"cardId": cardID})
}

// ListModels returns every note type name.
func (c *Catalog) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	if err := ankiconnect.Decode(ctx, c.anki, "modelNames", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// ModelFieldNames returns the field names of modelName.
func (c *Catalog) ModelFieldNames(ctx context.Context, modelName string) ([]string, error) {
	var fields []string
	if err := ankiconnect.Decode(ctx, c.anki, "modelFieldNames", map[string]any{"modelName": modelName}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// AddCard adds one note and returns the id AnkiConnect assigned, or nil.
func (c *Catalog) AddCard(ctx context.Context, note NoteSpec) (*int64, error) {
	var id *int64
	if err := ankiconnect.Decode(ctx, c.anki, "addNote", map[string]any{"note": normalizeNote(note)}, &id); err != nil {
		return nil, err
	}
	return id, nil
}

// AddCards adds several notes. The result holds one id or null per note.
func (c *Catalog) AddCards(ctx context.Context, notes []NoteSpec) (json.RawMessage, error) {
	specs := make([]NoteSpec, len(notes))
	for i, n := range notes {
		specs[i] = normalizeNote(n)
	}
	return c.anki.Invoke(ctx, "addNotes", map[string]any{"notes": specs})
}

// DeleteCards deletes the given notes. An empty list returns false
// without contacting AnkiConnect.
func (c *Catalog) DeleteCards(ctx context.Context, noteIDs []int64) (json.RawMessage, error) {
	if len(noteIDs) == 0 {
		return falseJSON, nil
	}
	return c.anki.Invoke(ctx, "deleteNotes", map[string]any{"notes": noteIDs})
}

// UpdateNoteFields replaces fields of one note.
func (c *Catalog) UpdateNoteFields(ctx context.Context, noteID int64, fields map[string]string) (bool, error) {
	return c.invokeBool(ctx, "updateNoteFields", map[string]any{
		"note": map[string]any{
			"id":     noteID,
			"fields": nonNilFields(fields),
		},
	})
}

// FindNotes returns the ids of notes matching query.
func (c *Catalog) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := ankiconnect.Decode(ctx, c.anki, "findNotes", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NotesInfo resolves note ids to full records. An empty list returns an
// empty list without contacting AnkiConnect.
func (c *Catalog) NotesInfo(ctx context.Context, noteIDs []int64) (json.RawMessage, error) {
	if len(noteIDs) == 0 {
		return emptyList, nil
	}
	return c.anki.Invoke(ctx, "notesInfo", map[string]any{"notes": noteIDs})
}

// GetCards returns every note of deckName.
func (c *Catalog) GetCards(ctx context.Context, deckName string) (json.RawMessage, error) {
	ids, err := c.FindNotes(ctx, "deck:"+deckName)
	if err != nil {
		return nil, err
	}
	return c.NotesInfo(ctx, ids)
}

// RecentLimit resolves the n requested for get_recent_cards: nil selects
// the default, negative values are rejected and the configured cap applies.
func (c *Catalog) RecentLimit(n *int) (int, error) {
	limit := c.defaultRecent
	if n != nil {
		limit = *n
	}
	if limit < 0 {
		return 0, errortypes.ValidationError(fmt.Errorf("n must not be negative, got %d", limit), "invalid get_recent_cards request")
	}
	if c.maxRecent > 0 && limit > c.maxRecent {
		slog.Debug("Capping get_recent_cards limit", "requested", limit, "max", c.maxRecent)
		limit = c.maxRecent
	}
	return limit, nil
}

// RecentNotes returns the n most recently created notes, newest first.
func (c *Catalog) RecentNotes(ctx context.Context, n int) (json.RawMessage, error) {
	if n < 0 {
		return nil, errortypes.ValidationError(errors.New("n must not be negative"), "invalid get_recent_cards request")
	}
	if n == 0 {
		return emptyList, nil
	}

	ids, err := c.FindNotes(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return emptyList, nil
	}

	return c.NotesInfo(ctx, MostRecent(ids, n))
}

// SuspendCards suspends the given cards.
func (c *Catalog) SuspendCards(ctx context.Context, cardIDs []int64) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "suspendCards", map[string]any{"cards": nonNilIDs(cardIDs)})
}

// UnsuspendCards unsuspends the given cards.
func (c *Catalog) UnsuspendCards(ctx context.Context, cardIDs []int64) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "unsuspendCards", map[string]any{"cards": nonNilIDs(cardIDs)})
}

// SetDueDate sets the due date of the given cards.
func (c *Catalog) SetDueDate(ctx context.Context, cardIDs []int64, due string) (json.RawMessage, error) {
	return c.anki.Invoke(ctx, "setDueDate", map[string]any{
		"cards": nonNilIDs(cardIDs),
		"days":  due,
	})
}

func (c *Catalog) invokeBool(ctx context.Context, action string, params map[string]any) (bool, error) {
	raw, err := c.anki.Invoke(ctx, action, params)
	if err != nil {
		return false, err
	}
	return Truthy(raw), nil
}

// Truthy reports whether a JSON value counts as success: null, false, 0,
// "", [] and {} are false, anything else is true.
func Truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// normalizeNote makes sure tags and fields serialize as [] and {} rather
// than null.
func normalizeNote(n NoteSpec) NoteSpec {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.Fields = nonNilFields(n.Fields)
	return n
}

func nonNilFields(fields map[string]string) map[string]string {
	if fields == nil {
		return map[string]string{}
	}
	return fields
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
