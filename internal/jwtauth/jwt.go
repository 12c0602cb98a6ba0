// Package jwtauth validates the bearer tokens the portal gateway issues.
// Claims carry the acting user, their department, and their role; the HTTP
// middleware copies them into the request context.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "distrack/pkg/domain"
	dErrors "distrack/pkg/domain-errors"
)

// Claims is the token payload for this service.
type Claims struct {
	UserID       string `json:"user_id"`
	DepartmentID string `json:"department_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the validated identity extracted from a token.
type Actor struct {
	UserID       id.UserID
	DepartmentID id.DepartmentID
	Role         string
}

// Service signs and validates access tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken issues an HS256 token. Used by tests and the dev seed tool;
// production tokens come from the portal gateway with the same shape.
func (s *Service) GenerateToken(actor Actor, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:       actor.UserID.String(),
		DepartmentID: actor.DepartmentID.String(),
		Role:         actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token string and returns the actor.
func (s *Service) ValidateToken(tokenString string) (Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	deptID, err := id.ParseDepartmentID(claims.DepartmentID)
	if err != nil {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return Actor{UserID: userID, DepartmentID: deptID, Role: claims.Role}, nil
}
