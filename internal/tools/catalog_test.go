package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/ankimcp/internal/ankiconnect"
	"github.com/localrivet/ankimcp/internal/ankiconnect/ankiconnecttest"
	"github.com/localrivet/ankimcp/internal/errortypes"
)

type call struct {
	Action string
	Params map[string]any
}

// MockInvoker records every call and answers from Results.
type MockInvoker struct {
	Calls   []call
	Results map[string]string
	Err     error
}

func (m *MockInvoker) Invoke(_ context.Context, action string, params map[string]any) (json.RawMessage, error) {
	m.Calls = append(m.Calls, call{Action: action, Params: params})
	if m.Err != nil {
		return nil, m.Err
	}
	result, ok := m.Results[action]
	if !ok {
		return json.RawMessage(`null`), nil
	}
	return json.RawMessage(result), nil
}

func (m *MockInvoker) actions() []string {
	out := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Action
	}
	return out
}

func newMockCatalog(results map[string]string) (*Catalog, *MockInvoker) {
	mock := &MockInvoker{Results: results}
	return NewCatalog(mock, Options{}), mock
}

func TestDeleteCardsShortCircuit(t *testing.T) {
	catalog, mock := newMockCatalog(nil)

	result, err := catalog.DeleteCards(context.Background(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(result))

	result, err = catalog.DeleteCards(context.Background(), []int64{})
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(result))

	assert.Empty(t, mock.Calls)
}

func TestDeleteCardsPassesIDsUnmodified(t *testing.T) {
	catalog, mock := newMockCatalog(nil)
	ids := []int64{42, 7, 1000}

	_, err := catalog.DeleteCards(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "deleteNotes", mock.Calls[0].Action)
	assert.Equal(t, []int64{42, 7, 1000}, mock.Calls[0].Params["notes"])
}

func TestNotesInfoShortCircuit(t *testing.T) {
	catalog, mock := newMockCatalog(nil)

	result, err := catalog.NotesInfo(context.Background(), []int64{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(result))
	assert.Empty(t, mock.Calls)

	_, err = catalog.NotesInfo(context.Background(), []int64{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "notesInfo", mock.Calls[0].Action)
	assert.Equal(t, []int64{3, 1, 2}, mock.Calls[0].Params["notes"])
}

func TestRecentNotesScenario(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{
		"findNotes": `[5,3,9,1]`,
		"notesInfo": `[{"noteId":9},{"noteId":5}]`,
	})

	result, err := catalog.RecentNotes(context.Background(), 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"noteId":9},{"noteId":5}]`, string(result))

	require.Equal(t, []string{"findNotes", "notesInfo"}, mock.actions())
	assert.Equal(t, "", mock.Calls[0].Params["query"])
	assert.Equal(t, []int64{9, 5}, mock.Calls[1].Params["notes"])
}

func TestRecentNotesZero(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"findNotes": `[5,3,9,1]`})

	result, err := catalog.RecentNotes(context.Background(), 0)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(result))
	assert.NotContains(t, mock.actions(), "notesInfo")
}

func TestRecentNotesEmptyCollection(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"findNotes": `[]`})

	result, err := catalog.RecentNotes(context.Background(), 10)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(result))
	assert.Equal(t, []string{"findNotes"}, mock.actions())
}

func TestRecentNotesMoreThanAvailable(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"findNotes": `[2,8,4]`})

	_, err := catalog.RecentNotes(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, mock.Calls, 2)
	assert.Equal(t, []int64{8, 4, 2}, mock.Calls[1].Params["notes"])
}

func TestRecentNotesNegative(t *testing.T) {
	catalog, mock := newMockCatalog(nil)

	_, err := catalog.RecentNotes(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, errortypes.IsValidationError(err))
	assert.Empty(t, mock.Calls)
}

func TestRecentLimit(t *testing.T) {
	five, big, negative := 5, 10000, -3

	catalog := NewCatalog(&MockInvoker{}, Options{})
	limit, err := catalog.RecentLimit(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecentLimit, limit)

	limit, err = catalog.RecentLimit(&big)
	require.NoError(t, err)
	assert.Equal(t, big, limit, "no cap by default")

	_, err = catalog.RecentLimit(&negative)
	assert.True(t, errortypes.IsValidationError(err))

	capped := NewCatalog(&MockInvoker{}, Options{DefaultRecentLimit: 50, MaxRecentLimit: 500})
	limit, err = capped.RecentLimit(nil)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	limit, err = capped.RecentLimit(&big)
	require.NoError(t, err)
	assert.Equal(t, 500, limit)

	limit, err = capped.RecentLimit(&five)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
}

func TestBooleanCoercion(t *testing.T) {
	tests := []struct {
		result string
		want   bool
	}{
		{`0`, false},
		{`null`, false},
		{`false`, false},
		{`""`, false},
		{`[]`, false},
		{`{}`, false},
		{`1651445861967`, true},
		{`true`, true},
		{`"ok"`, true},
		{`[1]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			catalog, _ := newMockCatalog(map[string]string{
				"createDeck":       tt.result,
				"deleteDecks":      tt.result,
				"updateNoteFields": tt.result,
			})

			ok, err := catalog.CreateDeck(context.Background(), "X")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			ok, err = catalog.DeleteDeck(context.Background(), "X", false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			ok, err = catalog.UpdateNoteFields(context.Background(), 1, map[string]string{"Front": "a"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestParamShapes(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{
		"addNote":         `1496198395707`,
		"findNotes":       `[]`,
		"deckNames":       `["Default"]`,
		"modelNames":      `["Basic"]`,
		"modelFieldNames": `["Front","Back"]`,
	})
	ctx := context.Background()

	_, err := catalog.DeleteDeck(ctx, "Old", true)
	require.NoError(t, err)
	_, err = catalog.RenameDeck(ctx, "Old", "New")
	require.NoError(t, err)
	_, err = catalog.DeckStats(ctx, "Spanish")
	require.NoError(t, err)
	_, err = catalog.CardStats(ctx, 77)
	require.NoError(t, err)
	fields, err := catalog.ModelFieldNames(ctx, "Basic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Front", "Back"}, fields)
	_, err = catalog.UpdateNoteFields(ctx, 12, map[string]string{"Back": "b"})
	require.NoError(t, err)
	_, err = catalog.GetCards(ctx, "Spanish")
	require.NoError(t, err)
	_, err = catalog.SuspendCards(ctx, []int64{1, 2})
	require.NoError(t, err)
	_, err = catalog.UnsuspendCards(ctx, []int64{3})
	require.NoError(t, err)
	_, err = catalog.SetDueDate(ctx, []int64{4}, "3")
	require.NoError(t, err)

	want := []call{
		{"deleteDecks", map[string]any{"decks": []string{"Old"}, "cardsToo": true}},
		{"renameDeck", map[string]any{"oldName": "Old", "newName": "New"}},
		{"getDeckStats", map[string]any{"decks": []string{"Spanish"}}},
		{"cardStats", map[string]any{"cardId": int64(77)}},
		{"modelFieldNames", map[string]any{"modelName": "Basic"}},
		{"updateNoteFields", map[string]any{"note": map[string]any{"id": int64(12), "fields": map[string]string{"Back": "b"}}}},
		{"findNotes", map[string]any{"query": "deck:Spanish"}},
		{"suspendCards", map[string]any{"cards": []int64{1, 2}}},
		{"unsuspendCards", map[string]any{"cards": []int64{3}}},
		{"setDueDate", map[string]any{"cards": []int64{4}, "days": "3"}},
	}
	assert.Equal(t, want, mock.Calls)
}

func TestGetCardsEmptyDeck(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"findNotes": `[]`})

	result, err := catalog.GetCards(context.Background(), "Empty")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(result))
	assert.Equal(t, []string{"findNotes"}, mock.actions())
}

func TestAddCard(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"addNote": `1496198395707`})

	id, err := catalog.AddCard(context.Background(), NoteSpec{
		DeckName:  "Default",
		ModelName: "Basic",
		Fields:    map[string]string{"Front": "hola", "Back": "hello"},
	})
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(1496198395707), *id)

	require.Len(t, mock.Calls, 1)
	note := mock.Calls[0].Params["note"].(NoteSpec)
	assert.Equal(t, []string{}, note.Tags, "tags default to an empty list")

	mock.Results["addNote"] = `null`
	id, err = catalog.AddCard(context.Background(), NoteSpec{DeckName: "Default", ModelName: "Basic"})
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestAddCardsPassesPerNoteOutcomes(t *testing.T) {
	catalog, mock := newMockCatalog(map[string]string{"addNotes": `[1,null]`})

	result, err := catalog.AddCards(context.Background(), []NoteSpec{
		{DeckName: "Default", ModelName: "Basic", Fields: map[string]string{"Front": "a"}, Tags: []string{"t"}},
		{DeckName: "Default", ModelName: "Basic", Fields: map[string]string{"Front": "a"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,null]`, string(result))

	notes := mock.Calls[0].Params["notes"].([]NoteSpec)
	require.Len(t, notes, 2)
	assert.Equal(t, []string{"t"}, notes[0].Tags)
	assert.Equal(t, []string{}, notes[1].Tags)
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	bridgeErr := errortypes.TransportError(errors.New("connection refused"), "failed to reach AnkiConnect")
	mock := &MockInvoker{Err: bridgeErr}
	catalog := NewCatalog(mock, Options{})

	_, err := catalog.ListDecks(context.Background())
	assert.Same(t, bridgeErr, err)

	_, err = catalog.CreateDeck(context.Background(), "X")
	assert.Same(t, bridgeErr, err)

	_, err = catalog.RecentNotes(context.Background(), 3)
	assert.Same(t, bridgeErr, err)
	assert.Len(t, mock.Calls, 3, "recent notes stops after the failed findNotes")
}

func TestEntries(t *testing.T) {
	all := Entries()
	require.Len(t, all, 19)

	seen := make(map[string]bool)
	for _, e := range all {
		assert.False(t, seen[e.Name], "duplicate tool %s", e.Name)
		seen[e.Name] = true
		assert.NotEmpty(t, e.Description)
		assert.NotEmpty(t, e.Actions)
	}

	// Callers get a copy.
	all[0].Actions[0] = "mutated"
	entry, ok := Lookup(ToolListDecks)
	require.True(t, ok)
	assert.Equal(t, []string{"deckNames"}, entry.Actions)

	_, ok = Lookup("no_such_tool")
	assert.False(t, ok)
}

// The tests below run the catalog against a stub AnkiConnect over HTTP.

func newStubCatalog(t *testing.T) (*Catalog, *ankiconnecttest.Server) {
	t.Helper()
	stub := ankiconnecttest.NewServer(t)
	client := ankiconnect.NewClient(ankiconnect.Config{URL: stub.URL})
	return NewCatalog(client, Options{}), stub
}

func TestCreateDeckThenListDecks(t *testing.T) {
	catalog, stub := newStubCatalog(t)

	decks := map[string]int64{"Default": 1}
	var nextID int64 = 100
	stub.Handle("createDeck", func(req ankiconnecttest.Request) (any, string) {
		var name string
		req.Param(t, "deck", &name)
		if id, ok := decks[name]; ok {
			return id, ""
		}
		nextID++
		decks[name] = nextID
		return nextID, ""
	})
	stub.Handle("deckNames", func(ankiconnecttest.Request) (any, string) {
		names := make([]string, 0, len(decks))
		for name := range decks {
			names = append(names, name)
		}
		return names, ""
	})

	for _, name := range []string{"Spanish", "Spanish"} {
		ok, err := catalog.CreateDeck(context.Background(), name)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	names, err := catalog.ListDecks(context.Background())
	require.NoError(t, err)

	count := 0
	for _, n := range names {
		if n == "Spanish" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCreateDeckFalsyResult(t *testing.T) {
	catalog, stub := newStubCatalog(t)
	stub.Result("createDeck", 0)

	ok, err := catalog.CreateDeck(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServerErrorSurfacesTransportError(t *testing.T) {
	catalog, stub := newStubCatalog(t)
	stub.FailWithStatus(http.StatusInternalServerError)

	_, err := catalog.RecentNotes(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, errortypes.IsTransportError(err))
	assert.Len(t, stub.Requests(), 1, "no second call after a transport failure")
}

func TestRecentNotesOverHTTP(t *testing.T) {
	catalog, stub := newStubCatalog(t)
	stub.Result("findNotes", []int64{5, 3, 9, 1})
	stub.Handle("notesInfo", func(req ankiconnecttest.Request) (any, string) {
		var ids []int64
		req.Param(t, "notes", &ids)
		notes := make([]map[string]any, len(ids))
		for i, id := range ids {
			notes[i] = map[string]any{"noteId": id}
		}
		return notes, ""
	})

	result, err := catalog.RecentNotes(context.Background(), 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"noteId":9},{"noteId":5}]`, string(result))

	reqs := stub.Requests()
	require.Len(t, reqs, 2)
	var requested []int64
	reqs[1].Param(t, "notes", &requested)
	assert.Equal(t, []int64{9, 5}, requested)
}
