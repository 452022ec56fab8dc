package core

import (
	"crypto/rand"
	"fmt"
)

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// nonceRejectAbove is the largest multiple of len(nonceAlphabet) that
// fits in a byte. Bytes at or above it are discarded to keep the draw
// uniform.
const nonceRejectAbove = 256 - (256 % len(nonceAlphabet))

// AlphanumericNonceGenerator draws state values uniformly from
// [A-Za-z0-9] using crypto/rand.
type AlphanumericNonceGenerator struct{}

func (AlphanumericNonceGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", BadInputError(fmt.Sprintf("nonce length must be positive, got %d", length))
	}
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", InternalError(err, "generate state nonce")
		}
		for _, b := range buf {
			if int(b) >= nonceRejectAbove {
				continue
			}
			out = append(out, nonceAlphabet[int(b)%len(nonceAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// IsAlphanumeric reports whether value only holds [A-Za-z0-9].
func IsAlphanumeric(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
