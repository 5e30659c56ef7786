package mcp

import (
	"encoding/json"
	"testing"
)

// TestIDGenerator_SurvivesJSONRoundTrip guards against a pending-request
// map keyed by IDGenerator.Next() silently never matching its response: a
// JSON number always decodes into float64 when unmarshaled into
// interface{}, so the generator must hand out IDs of that same dynamic
// type rather than its internal uint64 counter type.
func TestIDGenerator_SurvivesJSONRoundTrip(t *testing.T) {
	gen := NewIDGenerator()
	id := gen.Next()

	pending := map[interface{}]bool{id: true}

	msg, err := CreateRequest(id, "ping", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded MCPMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if !pending[decoded.ID] {
		t.Fatalf("decoded ID %#v (%T) does not match pending key %#v (%T)", decoded.ID, decoded.ID, id, id)
	}
}

func TestIDGenerator_NextIsMonotonicAndUnique(t *testing.T) {
	gen := NewIDGenerator()
	seen := make(map[interface{}]bool)
	for i := 0; i < 100; i++ {
		id := gen.Next()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %v", id)
		}
		seen[id] = true
	}
}
