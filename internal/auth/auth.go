// Package auth checks API bearer tokens against a bcrypt hash.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoHash       = errors.New("no token hash configured")
)

type Verifier struct {
	hash []byte
}

func NewVerifier(hash string) (*Verifier, error) {
	if hash == "" {
		return nil, ErrNoHash
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse token hash: %w", err)
	}
	return &Verifier{hash: []byte(hash)}, nil
}

func (v *Verifier) Verify(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// HashToken returns the value to configure for token.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
