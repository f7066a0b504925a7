package auth

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

type AccessClaims struct {
	ProfileID string
	SID       string
	Role      string
	ExpiresAt time.Time
}
