package domain

import (
	"testing"
	"time"
)

func TestEvent_CalculateHashIsDeterministic(t *testing.T) {
	event := Event{
		ID:        "evt-1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:    "plan.generation",
		Actor:     "ai",
		Metadata: map[string]interface{}{
			"model":  "test-model",
			"tokens": 42,
		},
	}

	first := event.CalculateHash()
	second := event.CalculateHash()
	if first != second {
		t.Error("hash should be stable across calls")
	}
	if first == "" {
		t.Error("hash should not be empty")
	}
}

func TestEvent_HashChangesWithContents(t *testing.T) {
	base := Event{
		ID:        "evt-1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:    "plan.generation",
		Actor:     "ai",
	}

	changed := base
	changed.Action = "interview.question_round"
	if base.CalculateHash() == changed.CalculateHash() {
		t.Error("hash should change when the action changes")
	}

	chained := base
	chained.PrevHash = base.CalculateHash()
	if base.CalculateHash() == chained.CalculateHash() {
		t.Error("hash should incorporate the previous hash")
	}
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	a := map[string]interface{}{"b": 2, "a": 1, "c": "x"}
	b := map[string]interface{}{"c": "x", "a": 1, "b": 2}
	if canonicalJSON(a) != canonicalJSON(b) {
		t.Error("canonicalJSON should be independent of insertion order")
	}
	if canonicalJSON(nil) != "" {
		t.Error("canonicalJSON of empty metadata should be empty")
	}
}
