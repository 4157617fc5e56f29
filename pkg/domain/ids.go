// Package domain holds the typed identifiers shared across modules. Each ID is
// a distinct named UUID type so a matter id can never be passed where a check
// id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "casecheck/pkg/domain-errors"
)

// CheckID identifies a single verification check.
type CheckID uuid.UUID

// MatterID identifies the legal matter a check was requested for.
type MatterID uuid.UUID

// NewCheckID returns a random CheckID.
func NewCheckID() CheckID { return CheckID(uuid.New()) }

// ParseCheckID parses and validates a check identifier at a trust boundary.
func ParseCheckID(s string) (CheckID, error) {
	u, err := parseUUID(s, "check_id")
	if err != nil {
		return CheckID{}, err
	}
	return CheckID(u), nil
}

func (id CheckID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero UUID.
func (id CheckID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CheckID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CheckID) UnmarshalText(b []byte) error {
	parsed, err := ParseCheckID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseMatterID parses and validates a matter identifier at a trust boundary.
func ParseMatterID(s string) (MatterID, error) {
	u, err := parseUUID(s, "matter_id")
	if err != nil {
		return MatterID{}, err
	}
	return MatterID(u), nil
}

func (id MatterID) String() string { return uuid.UUID(id).String() }

func (id MatterID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id MatterID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *MatterID) UnmarshalText(b []byte) error {
	parsed, err := ParseMatterID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

const maxIDLength = 64

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}
