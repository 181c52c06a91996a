package tools

import (
	"encoding/json"
	"testing"
)

func TestGetRecentCardsRequestDistinguishesMissingN(t *testing.T) {
	var omitted GetRecentCardsRequest
	if err := json.Unmarshal([]byte(`{}`), &omitted); err != nil {
		t.Fatalf("Failed to unmarshal GetRecentCardsRequest: %v", err)
	}
	if omitted.N != nil {
		t.Errorf("Expected nil N when omitted, got %d", *omitted.N)
	}

	var zero GetRecentCardsRequest
	if err := json.Unmarshal([]byte(`{"n": 0}`), &zero); err != nil {
		t.Fatalf("Failed to unmarshal GetRecentCardsRequest: %v", err)
	}
	if zero.N == nil || *zero.N != 0 {
		t.Errorf("Expected explicit n=0 to be kept, got %v", zero.N)
	}
}

func TestAddCardsRequestUsesAnkiConnectNoteKeys(t *testing.T) {
	input := `{"notes": [{"deckName": "Spanish", "modelName": "Basic", "fields": {"Front": "hola"}, "tags": ["verbs"]}]}`

	var req AddCardsRequest
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		t.Fatalf("Failed to unmarshal AddCardsRequest: %v", err)
	}
	if len(req.Notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(req.Notes))
	}

	note := req.Notes[0]
	if note.DeckName != "Spanish" || note.ModelName != "Basic" {
		t.Errorf("Unexpected deck/model: %q/%q", note.DeckName, note.ModelName)
	}
	if note.Fields["Front"] != "hola" {
		t.Errorf("Expected Front field 'hola', got %q", note.Fields["Front"])
	}
	if len(note.Tags) != 1 || note.Tags[0] != "verbs" {
		t.Errorf("Expected tags [verbs], got %v", note.Tags)
	}
}

func TestNoteSpecEncodesEmptyTags(t *testing.T) {
	data, err := json.Marshal(normalizeNote(NoteSpec{DeckName: "Default", ModelName: "Basic"}))
	if err != nil {
		t.Fatalf("Failed to marshal NoteSpec: %v", err)
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(data, &jsonMap); err != nil {
		t.Fatalf("Failed to unmarshal JSON into map: %v", err)
	}
	if tags, ok := jsonMap["tags"].([]interface{}); !ok || len(tags) != 0 {
		t.Errorf("Expected tags to encode as [], got %v", jsonMap["tags"])
	}
	if fields, ok := jsonMap["fields"].(map[string]interface{}); !ok || len(fields) != 0 {
		t.Errorf("Expected fields to encode as {}, got %v", jsonMap["fields"])
	}
}

func TestAddCardResponseNullID(t *testing.T) {
	data, err := json.Marshal(AddCardResponse{})
	if err != nil {
		t.Fatalf("Failed to marshal AddCardResponse: %v", err)
	}
	if string(data) != `{"note_id":null}` {
		t.Errorf("Expected note_id null, got %s", data)
	}
}
