package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "distrack/pkg/domain-errors"
)

// TestParseIDs validates the parsing invariant: IDs must be valid, non-empty,
// non-nil UUIDs at trust boundaries.
func TestParseIDs(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDistributionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDepartmentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseDocumentID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DocumentID(valid), id)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	distID := DistributionID(uuid.New())
	deptID := DepartmentID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ DistributionID = deptID // compile error
	// var _ DepartmentID = distID   // compile error

	assert.NotEqual(t, uuid.UUID(distID), uuid.UUID(deptID))
}
