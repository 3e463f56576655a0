package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

func TestParseSubjectID(t *testing.T) {
	tests := []struct {
		input    string
		expected SubjectID
		hasError bool
	}{
		{"17", SubjectID("17"), false},
		{" 17 ", SubjectID("17"), false},
		{"17.0", SubjectID("17"), false},
		{"17.5", SubjectID("17.5"), false},
		{"s-04", SubjectID("s-04"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		result, err := ParseSubjectID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseSubjectID(%q) expected error, got nil", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSubjectID(%q) unexpected error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("ParseSubjectID(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestComputeCohortHash_OrderIndependent(t *testing.T) {
	a := ComputeCohortHash([]string{"1", "2", "3"}, []string{"9"})
	b := ComputeCohortHash([]string{"3", "1", "2"}, []string{"9"})
	if a != b {
		t.Errorf("cohort hash depends on order: %s vs %s", a, b)
	}

	c := ComputeCohortHash([]string{"1", "2", "3"}, nil)
	if a == c {
		t.Error("cohort hash ignores the exclusion list")
	}
}
