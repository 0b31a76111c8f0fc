package codec

import (
	"crypto/sha256"
	"encoding/hex"

	"authlinker/internal/domain/service"
)

// hashBinder computes the digest that ties a token to the payload it was
// issued with. The input is always the plain canonical base64 form of the
// payload, never the obfuscated or encrypted transmission form, so the
// verifier reproduces the same digest no matter which codec carried the data.
type hashBinder struct {
	salt string
}

// NewHashBinder is the constructor for hashBinder.
func NewHashBinder(salt string) service.HashBinder {
	return &hashBinder{salt: salt}
}

// Bind returns sha256(payloadBase64 || token || salt) as lowercase hex.
func (b *hashBinder) Bind(payloadBase64, token string) string {
	sum := sha256.Sum256([]byte(payloadBase64 + token + b.salt))

	return hex.EncodeToString(sum[:])
}
