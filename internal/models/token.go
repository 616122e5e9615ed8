package models

import (
	"time"
)

const TokenTypeBearer = "bearer"

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access    IssuedToken
	Refresh   IssuedToken
	TokenType string
}
