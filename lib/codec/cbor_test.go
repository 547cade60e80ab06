// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// sampleMessage uses json struct tags like the agentapi wire types.
type sampleMessage struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionID,omitempty"`
	Count     int             `json:"count"`
	Error     json.RawMessage `json:"error,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	original := sampleMessage{
		ID:        "msg_01",
		SessionID: "ses_01",
		Count:     42,
		Error:     json.RawMessage(`{"name":"ProviderAuthError"}`),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleMessage
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != original.ID || decoded.SessionID != original.SessionID || decoded.Count != original.Count {
		t.Errorf("decoded %+v, want %+v", decoded, original)
	}
	if !bytes.Equal(decoded.Error, original.Error) {
		t.Errorf("raw JSON payload: got %q, want %q", decoded.Error, original.Error)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("map encoding is not deterministic: %x vs %x", first, again)
		}
	}
}

func TestJSONTagNamesFields(t *testing.T) {
	data, err := Marshal(sampleMessage{ID: "msg_01"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"id"`) {
		t.Errorf("notation %q does not use the json field name", notation)
	}
	if strings.Contains(notation, `"sessionID"`) || strings.Contains(notation, `"error"`) {
		t.Errorf("notation %q contains omitempty fields", notation)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"lsp": map[string]any{"gopls": "connected"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", decoded)
	}
	if _, ok := outer["lsp"].(map[string]any); !ok {
		t.Fatalf("nested value %T, want map[string]any", outer["lsp"])
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var message sampleMessage
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &message); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func BenchmarkMarshal(b *testing.B) {
	message := sampleMessage{ID: "msg_01", SessionID: "ses_01", Count: 42}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(message)
	}
}
