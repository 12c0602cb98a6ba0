// Package domain holds shared domain primitives. Typed IDs make it a compile
// error to pass a department where a distribution is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "distrack/pkg/domain-errors"
)

type (
	// DistributionID identifies a distribution aggregate.
	DistributionID uuid.UUID
	// DepartmentID identifies a department in the directory.
	DepartmentID uuid.UUID
	// UserID identifies an actor.
	UserID uuid.UUID
	// DocumentID identifies an invoice or additional document.
	DocumentID uuid.UUID
	// TypeID identifies a distribution type.
	TypeID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "invalid %s id", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeValidation, "%s id must not be nil", what)
	}
	return u, nil
}

// ParseDistributionID validates and returns a DistributionID.
func ParseDistributionID(s string) (DistributionID, error) {
	u, err := parseUUID(s, "distribution")
	return DistributionID(u), err
}

// ParseDepartmentID validates and returns a DepartmentID.
func ParseDepartmentID(s string) (DepartmentID, error) {
	u, err := parseUUID(s, "department")
	return DepartmentID(u), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseDocumentID validates and returns a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document")
	return DocumentID(u), err
}

// ParseTypeID validates and returns a TypeID.
func ParseTypeID(s string) (TypeID, error) {
	u, err := parseUUID(s, "type")
	return TypeID(u), err
}

func (id DistributionID) String() string { return uuid.UUID(id).String() }
func (id DepartmentID) String() string   { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id TypeID) String() string         { return uuid.UUID(id).String() }

func (id DistributionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DepartmentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TypeID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// NewDistributionID allocates a fresh distribution ID.
func NewDistributionID() DistributionID { return DistributionID(uuid.New()) }
