package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID     ID
	SubjectID ID
	ModelName ID
	SampleID  ID
)

func (id RunID) String() string     { return ID(id).String() }
func (id SubjectID) String() string { return ID(id).String() }
func (id ModelName) String() string { return ID(id).String() }
func (id SampleID) String() string  { return ID(id).String() }

// ParseSubjectID normalizes a subject identifier read from a data file.
// Numeric ids written as "12.0" by statistical packages collapse to "12".
func ParseSubjectID(s string) (SubjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	if strings.HasSuffix(s, ".0") && !strings.ContainsAny(strings.TrimSuffix(s, ".0"), ".eE") {
		s = strings.TrimSuffix(s, ".0")
	}
	return SubjectID(s), nil
}
