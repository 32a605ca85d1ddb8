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
		// Fallback to v4 if v7 fails
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
	TrialID       ID
	ParticipantID ID
	RunID         ID
)

func (id TrialID) String() string       { return ID(id).String() }
func (id ParticipantID) String() string { return ID(id).String() }
func (id RunID) String() string         { return ID(id).String() }

// NewRunID creates an identifier for one analysis run.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseTrialID parses a string into TrialID
func ParseTrialID(s string) (TrialID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("trial ID cannot be empty")
	}
	return TrialID(s), nil
}

// ParseParticipantID parses a string into ParticipantID
func ParseParticipantID(s string) (ParticipantID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("participant ID cannot be empty")
	}
	return ParticipantID(s), nil
}
