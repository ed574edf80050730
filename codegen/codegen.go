// Package codegen produces random short codes for links.
// Generators are safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Alphabet is the 62-symbol set codes are drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultLength = 6
	MinLength     = 6
	MaxLength     = 8

	// Bytes at or above this value are discarded so every symbol is equally likely.
	// 248 is the largest multiple of 62 that fits in a byte.
	rejectionLimit = 256 - (256 % len(Alphabet))
)

// Generator generates link codes.
// Uniqueness is not guaranteed; the store arbitrates that.
type Generator interface {
	Generate(length int) (string, error)
}

type randomGenerator struct {
	src io.Reader
}

// New returns a Generator backed by crypto/rand.
func New() Generator {
	return &randomGenerator{src: rand.Reader}
}

// NewFromReader returns a Generator reading entropy from src.
func NewFromReader(src io.Reader) Generator {
	return &randomGenerator{src: src}
}

// Generate returns a code of the given length. Each character is chosen
// independently and uniformly from Alphabet.
func (g *randomGenerator) Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("code length %d out of range [%d, %d]", length, MinLength, MaxLength)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := io.ReadFull(g.src, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectionLimit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
