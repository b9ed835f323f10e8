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
	// Falls back to v4 if v7 generation fails
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
	FaultID        ID
	RegistrationID ID
)

func (id FaultID) String() string        { return ID(id).String() }
func (id RegistrationID) String() string { return ID(id).String() }

// ParseFaultID parses a string into FaultID
func ParseFaultID(s string) (FaultID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("fault ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("fault ID %q is not a UUID: %w", s, err)
	}
	return FaultID(s), nil
}

// ParseRegistrationID parses a string into RegistrationID
func ParseRegistrationID(s string) (RegistrationID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("registration ID cannot be empty")
	}
	return RegistrationID(s), nil
}
