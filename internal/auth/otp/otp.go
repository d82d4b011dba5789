// Package otp issues and checks one-time codes for phone login. Codes are
// short-lived, single-use and capped at a fixed number of wrong guesses.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of digits in a code.
const CodeLength = 6

// DefaultMaxAttempts is how many wrong guesses burn a challenge.
const DefaultMaxAttempts = 3

// Challenge is one outstanding code for a phone number.
type Challenge struct {
	Code        string
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
}

// Expired reports whether the challenge has lapsed.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the guess budget is spent.
func (c Challenge) Exhausted() bool {
	return c.Attempts >= c.MaxAttempts
}

// GenerateCode produces a random six-digit code. crypto/rand keeps codes
// unguessable even if many are observed.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Store keeps at most one outstanding challenge per phone number.
type Store interface {
	Save(ctx context.Context, phone string, challenge Challenge) error
	// Find returns the challenge for a phone, or nil when none exists.
	Find(ctx context.Context, phone string) (*Challenge, error)
	// RecordAttempt increments the wrong-guess counter.
	RecordAttempt(ctx context.Context, phone string) error
	Delete(ctx context.Context, phone string) error
}

// Sender delivers a code to a phone. Real SMS integration sits behind this
// interface; the shipped implementation logs instead.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}
