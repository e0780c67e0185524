package jwttoken

import (
	authmw "grameengo/pkg/platform/middleware/auth"
)

// Validator exposes s to the auth middleware, which only needs the
// identity fields of a verified token.
func (s *JWTService) Validator() authmw.JWTValidator {
	return validator{s: s}
}

type validator struct {
	s *JWTService
}

func (v validator) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	c, err := v.s.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: c.UserID, Role: c.Role, Name: c.Name, Email: c.Email, MFIID: c.MFIID}, nil
}
