// Package idgen provides short, URL-safe random strings backed by nanoid:
// request IDs for the HTTP layer and throwaway account passwords.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix is prepended to every request ID.
var RequestPrefix = "req-"

// Alphabet defines the character set used for request IDs.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters in a request ID (excluding the prefix).
var Length = 10

// PasswordAlphabet is the character set used for generated passwords.
var PasswordAlphabet = Alphabet + "!@#$%^&*()-_=+[]{}<>~"

// PasswordLength is the length of generated passwords.
var PasswordLength = 32

// RequestID returns a new request ID.
func RequestID() (string, error) {
	return GenerateWithPrefix(RequestPrefix)
}

// GenerateWithPrefix returns a new random ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// Password returns a random password. Accounts provisioned from node events
// are never logged into with it.
func Password() (string, error) {
	pw, err := nanoid.Generate(PasswordAlphabet, PasswordLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return pw, nil
}
