package auth

import (
	"strings"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
)

type TokenParser interface {
	ParseAccessToken(raw string) (AccessClaims, error)
}

type Service struct {
	tokens TokenParser
}

func NewService(tokens TokenParser) *Service {
	return &Service{tokens: tokens}
}

// Authenticate resolves a bearer token into the caller identity.
func (s *Service) Authenticate(rawToken string) (Identity, error) {
	if s.tokens == nil {
		return Identity{}, ErrUnauthorized
	}

	claims, err := s.tokens.ParseAccessToken(strings.TrimSpace(rawToken))
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		role = string(enums.RoleUser)
	}

	return Identity{
		ProfileID: claims.ProfileID,
		SID:       claims.SID,
		Role:      role,
	}, nil
}
