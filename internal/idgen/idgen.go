// Package idgen generates the opaque refs the gateway assigns to outbound
// messages. Refs are short, URL-safe and unique per process lifetime.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// MessagePrefix is prepended to every outbound message ref.
const MessagePrefix = "msg-"

// Alphabet defines the character set used for the random portion of the ref.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// MessageRef returns a new ref for an outbound message.
func MessageRef() (string, error) {
	return WithPrefix(MessagePrefix)
}

// WithPrefix returns a new ref with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
