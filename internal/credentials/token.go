package credentials

import (
	"crypto/rand"
	"fmt"
)

// DefaultLength is the length of salts and bearer tokens issued at signup.
const DefaultLength = 16

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// bytes >= maxByte are rejected so every symbol is equally likely.
const maxByte = 256 - (256 % len(alphabet))

// Issuer generates fixed-length random alphanumeric strings.
type Issuer struct {
	length int
}

func NewIssuer(length int) *Issuer {
	if length < 1 {
		length = DefaultLength
	}
	return &Issuer{length: length}
}

// Issue returns a new random string.
func (i *Issuer) Issue() (string, error) {
	out := make([]byte, 0, i.length)
	buf := make([]byte, i.length*2)
	for len(out) < i.length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == i.length {
				break
			}
		}
	}
	return string(out), nil
}

// Length returns the number of characters produced by Issue.
func (i *Issuer) Length() int {
	return i.length
}
