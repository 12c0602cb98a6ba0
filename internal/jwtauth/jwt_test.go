package jwtauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

var jwtService = NewService("test-signing-key", "test-issuer")

func testActor() Actor {
	return Actor{
		UserID:       id.UserID(uuid.New()),
		DepartmentID: id.DepartmentID(uuid.New()),
		Role:         "clerk",
	}
}

func Test_GenerateToken_RoundTrip(t *testing.T) {
	actor := testActor()

	token, err := jwtService.GenerateToken(actor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateToken(testActor(), -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, dErrors.MessageOf(err), "expired")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("different-key", "test-issuer")
	token, err := other.GenerateToken(testActor(), time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
