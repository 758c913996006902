package domain

import (
	"testing"

	"github.com/bytedance/sonic"
)

func decodeEnvelope(t *testing.T, ev Event) (string, map[string]any) {
	t.Helper()
	raw, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	var env struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		t.Fatalf("invalid envelope json: %v", err)
	}
	obj, _ := env.Data.(map[string]any)
	return env.Type, obj
}

func TestEncodeCardCreatedEnvelope(t *testing.T) {
	card := Card{ID: "c1", Title: "T", Status: StatusBlocked, Project: "p1", Order: 3}

	typ, data := decodeEnvelope(t, CardCreated{Card: card})
	if typ != string(EventCardCreated) {
		t.Fatalf("unexpected type %q", typ)
	}
	if data["id"] != "c1" || data["status"] != "blocked" {
		t.Fatalf("unexpected payload: %#v", data)
	}
}

func TestEncodeCardDeletedCarriesOnlyID(t *testing.T) {
	typ, data := decodeEnvelope(t, CardDeleted{ID: "c9"})
	if typ != string(EventCardDeleted) {
		t.Fatalf("unexpected type %q", typ)
	}
	if len(data) != 1 || data["id"] != "c9" {
		t.Fatalf("expected bare id payload, got %#v", data)
	}
}

func TestEncodeBulkDeletedCarriesIDList(t *testing.T) {
	typ, data := decodeEnvelope(t, CardsBulkDeleted{IDs: []string{"a", "b"}})
	if typ != string(EventCardsBulkDeleted) {
		t.Fatalf("unexpected type %q", typ)
	}
	ids, ok := data["ids"].([]any)
	if !ok || len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids payload: %#v", data)
	}
}

func TestEncodeInitialDataIsCardList(t *testing.T) {
	raw, err := EncodeEvent(InitialData{Cards: []Card{{ID: "c1"}, {ID: "c2"}}})
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	var env struct {
		Type string `json:"type"`
		Data []Card `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &env); err != nil {
		t.Fatalf("invalid envelope json: %v", err)
	}
	if env.Type != string(EventInitialData) || len(env.Data) != 2 {
		t.Fatalf("unexpected envelope: %#v", env)
	}
}
