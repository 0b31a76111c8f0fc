// Package token provides the random token generator for issued links.
package token

import (
	"crypto/rand"
	"math/big"

	"authlinker/internal/domain/service"
	"authlinker/internal/errors"
)

// charPool is the 62-symbol alphanumeric pool tokens are drawn from.
const charPool = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type generator struct{}

// NewGenerator is the constructor for the token generator. It draws from the
// process-wide cryptographic random source; tokens must never come from the
// deterministic generator used for table rotation.
func NewGenerator() service.TokenGenerator {
	return &generator{}
}

// Generate returns a token of the requested length. Tokens are short and are
// expected to collide across subjects; the record store scopes validity to
// the (record id, token) pair.
func (g *generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.Errorf("invalid token length: %d", length)
	}

	poolSize := big.NewInt(int64(len(charPool)))
	buf := make([]byte, length)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, poolSize)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random source")
		}
		buf[i] = charPool[idx.Int64()]
	}

	return string(buf), nil
}
