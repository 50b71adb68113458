package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of externally issued access tokens.
type JWTClaims struct {
	UserID      int64    `json:"user_id"`
	Roles       []string `json:"roles"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	jwt.RegisteredClaims
}

// Actor converts claims into the caller of a use case.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	roles := make([]string, len(c.Roles))
	copy(roles, c.Roles)
	return Actor{ID: c.UserID, Email: c.Email, DisplayName: c.DisplayName, Roles: roles}
}
