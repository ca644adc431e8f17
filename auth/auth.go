// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrInvalidToken = errors.New("invalid token format")

const slotIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateParticipantToken creates a fresh opaque participant token.
// Tokens are random UUIDs, the same shape browsers have always stored.
func GenerateParticipantToken() string {
	return uuid.NewString()
}

// ValidateParticipantToken checks that a client-supplied token is usable.
func ValidateParticipantToken(token string) error {
	if token == "" || len(token) > 128 {
		return ErrInvalidToken
	}
	for _, c := range token {
		if c <= ' ' || c == ';' || c == ',' || c == '"' || c == '\\' {
			return ErrInvalidToken
		}
	}
	return nil
}

// GenerateVoteID creates a unique vote row ID
func GenerateVoteID() string {
	return uuid.NewString()
}

// GenerateSlotID creates a short URL-friendly time slot ID
func GenerateSlotID() (string, error) {
	id, err := gonanoid.Generate(slotIDAlphabet, 12)
	if err != nil {
		return "", fmt.Errorf("failed to generate slot ID: %w", err)
	}
	return id, nil
}

// GenerateEventID creates a human-memorable adjective-color-animal slug,
// e.g. "brave-blue-elephant". Collisions are possible and must be checked
// by the caller.
func GenerateEventID() (string, error) {
	parts := make([]string, 0, 3)
	for _, dict := range [][]string{adjectives, colors, animals} {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(dict))))
		if err != nil {
			return "", fmt.Errorf("failed to generate event ID: %w", err)
		}
		parts = append(parts, dict[n.Int64()])
	}
	return strings.Join(parts, "-"), nil
}

var adjectives = []string{
	"brave", "calm", "clever", "cozy", "daring", "eager", "fancy", "gentle",
	"giant", "happy", "humble", "jolly", "kind", "lively", "lucky", "merry",
	"mighty", "nimble", "polite", "proud", "quick", "quiet", "rapid", "shiny",
	"silly", "sleepy", "smooth", "snappy", "sunny", "swift", "tidy", "witty",
}

var colors = []string{
	"amber", "aqua", "azure", "beige", "black", "blue", "bronze", "coral",
	"crimson", "cyan", "gold", "gray", "green", "indigo", "ivory", "jade",
	"lavender", "lime", "magenta", "maroon", "navy", "olive", "orange", "pink",
	"plum", "purple", "red", "rose", "silver", "teal", "violet", "white",
}

var animals = []string{
	"badger", "bear", "beaver", "bison", "camel", "cat", "cheetah", "crane",
	"dolphin", "eagle", "elephant", "falcon", "ferret", "fox", "gecko", "giraffe",
	"hedgehog", "heron", "koala", "lemur", "lion", "llama", "lynx", "moose",
	"otter", "owl", "panda", "penguin", "rabbit", "raven", "seal", "tiger",
}
