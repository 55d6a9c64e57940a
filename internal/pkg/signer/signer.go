// Package signer issues short, purpose-bound signed tokens such as email
// verification links. Key and clock are supplied by the caller.
package signer

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid = errors.New("invalid signature")
	ErrExpired = errors.New("signature expired")
)

// Signer signs a value together with its issue time and verifies it within
// MaxAge.
type Signer struct {
	key     []byte
	purpose string
	maxAge  time.Duration
	now     func() time.Time
}

// New creates a signer. purpose is embedded in every token so a token minted
// for one flow cannot be replayed against another.
func New(key []byte, purpose string, maxAge time.Duration, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{key: key, purpose: purpose, maxAge: maxAge, now: now}
}

type claims struct {
	Value   string `json:"v"`
	Purpose string `json:"p"`
	jwt.RegisteredClaims
}

// Sign returns a token carrying value.
func (s *Signer) Sign(value string) (string, error) {
	issued := s.now()
	c := claims{
		Value:   value,
		Purpose: s.purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.maxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
}

// Unsign verifies token and returns the embedded value.
func (s *Signer) Unsign(token string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}
	if c.Purpose != s.purpose {
		return "", ErrInvalid
	}
	return c.Value, nil
}
