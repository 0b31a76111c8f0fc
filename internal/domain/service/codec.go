// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "time"

// PayloadCodec transforms a canonical payload into the opaque form carried in
// a link and back. Two families exist: a reversible time-rotating
// substitution codec and a one-way asymmetric codec whose Decode requires
// the private key. The family is chosen once at construction from
// configuration, never per call.
type PayloadCodec interface {
	// Encode turns the canonical payload bytes into the transmittable string.
	// The timestamp selects the rotation bucket for the substitution codec;
	// the asymmetric codec ignores it.
	Encode(payload []byte, now time.Time) (string, error)

	// Decode recovers the canonical payload bytes from an encoded string.
	Decode(data string) ([]byte, error)

	// Ready reports whether the codec can encode right now. The asymmetric
	// codec is not ready until a keypair has been generated and loaded.
	Ready() bool

	// Legacy reports whether links produced by this codec carry the raw token
	// as a separate link parameter. Only the substitution codec does.
	Legacy() bool
}

// HashBinder computes the keyed digest that binds a token to the canonical
// payload. The digest is always taken over the plain, non-obfuscated base64
// form of the payload so verification is independent of which codec carried
// the data.
type HashBinder interface {
	// Bind returns the lowercase hex digest over payloadBase64 || token || salt.
	Bind(payloadBase64, token string) string
}

// TokenGenerator produces short random alphanumeric tokens. Tokens carry no
// uniqueness guarantee on their own; validity is scoped to the record ID in
// the store.
type TokenGenerator interface {
	Generate(length int) (string, error)
}

// KeyManager owns the asymmetric keypair lifecycle. Generation is an explicit
// administrative operation, independent of issuance.
type KeyManager interface {
	// GenerateKeyPair creates a fresh keypair and persists it, replacing any
	// previously loaded one. Links issued under the old keypair can no longer
	// be decoded; acceptable because links are short-lived.
	GenerateKeyPair() error

	// Loaded reports whether both halves of the keypair are available.
	Loaded() bool

	// PublicKeyBase64 returns the encoded public key for external verifiers,
	// or an empty string when no keypair is loaded.
	PublicKeyBase64() string
}

// QRCodeService renders an issued link as a scannable image.
type QRCodeService interface {
	// GenerateLinkQR returns a PNG rendering of the link URL.
	GenerateLinkQR(link string) ([]byte, error)
}
