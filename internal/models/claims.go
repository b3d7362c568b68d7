package models

import "github.com/golang-jwt/jwt/v5"

// Claims identifies the caller of a mutating request. Tokens are issued by an
// external identity provider; Subject is recorded as "who".
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the identifier recorded in logs and stacks.
func (c *Claims) Actor() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.Email
}
