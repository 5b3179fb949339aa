package utils

import (
	"strings"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID()
	if !strings.HasPrefix(id, "run-") {
		t.Errorf("Expected run ID to start with 'run-', got %s", id)
	}
	// run-YYYYMMDD-HHMMSS-xxxxxxxx
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		t.Fatalf("Expected 4 dash separated parts, got %d (%s)", len(parts), id)
	}
	if len(parts[1]) != 8 || len(parts[2]) != 6 {
		t.Errorf("Expected timestamp parts of length 8 and 6, got %q and %q", parts[1], parts[2])
	}
}

func TestGenerateRunIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := GenerateRunID()
		if seen[id] {
			t.Fatalf("Duplicate run ID generated: %s", id)
		}
		seen[id] = true
	}
}
