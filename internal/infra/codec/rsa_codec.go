package codec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"authlinker/internal/errors"
)

const (
	rsaKeyBits     = 2048
	publicKeyFile  = "public.key"
	privateKeyFile = "private.key"
	keyFileMode    = 0o600
)

// RSACodec is the one-way payload codec. Encoding uses the public key; only
// the holder of the private key (normally an out-of-band verifier) can
// decode. Decode here exists for administrative and testing use, not the
// issuance hot path.
type RSACodec struct {
	keyDir     string
	logger     *slog.Logger
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
}

// NewRSACodec loads any previously generated keypair from keyDir. A missing
// keypair is not an error: the codec reports not Ready until an explicit
// GenerateKeyPair runs.
func NewRSACodec(keyDir string, logger *slog.Logger) (*RSACodec, error) {
	if err := os.MkdirAll(keyDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create key directory")
	}

	c := &RSACodec{keyDir: keyDir, logger: logger}
	if err := c.loadKeys(); err != nil {
		// Key files exist but are unreadable or corrupt; surface it instead
		// of silently issuing undecodable links later.
		return nil, err
	}

	return c, nil
}

// Encode encrypts the canonical payload with the public key. The timestamp
// is unused; the ciphertext carries no rotation state.
func (c *RSACodec) Encode(payload []byte, _ time.Time) (string, error) {
	if c.publicKey == nil {
		return "", errors.New("public key not loaded")
	}

	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, c.publicKey, payload)
	if err != nil {
		return "", errors.Wrap(err, "rsa encryption failed")
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decode decrypts a base64 ciphertext with the private key.
func (c *RSACodec) Decode(data string) ([]byte, error) {
	if c.privateKey == nil {
		return nil, errors.New("private key not loaded")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ciphertext")
	}

	payload, err := rsa.DecryptPKCS1v15(rand.Reader, c.privateKey, ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "rsa decryption failed")
	}

	return payload, nil
}

// Ready reports whether both halves of the keypair are loaded.
func (c *RSACodec) Ready() bool {
	return c.publicKey != nil && c.privateKey != nil
}

// Legacy reports false: encrypted links never expose the raw token.
func (c *RSACodec) Legacy() bool {
	return false
}

// Loaded implements service.KeyManager.
func (c *RSACodec) Loaded() bool {
	return c.Ready()
}

// GenerateKeyPair creates a fresh 2048-bit keypair and persists both halves
// base64-encoded: the public key as PKIX/X.509 SPKI, the private key as
// PKCS#8. Replaces any previously loaded keypair.
func (c *RSACodec) GenerateKeyPair() error {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return errors.Wrap(err, "rsa key generation failed")
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return errors.Wrap(err, "failed to encode public key")
	}
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return errors.Wrap(err, "failed to encode private key")
	}

	publicPath := filepath.Join(c.keyDir, publicKeyFile)
	if err := os.WriteFile(publicPath, []byte(base64.StdEncoding.EncodeToString(publicDER)), keyFileMode); err != nil {
		return errors.Wrap(err, "failed to write public key file")
	}

	privatePath := filepath.Join(c.keyDir, privateKeyFile)
	if err := os.WriteFile(privatePath, []byte(base64.StdEncoding.EncodeToString(privateDER)), keyFileMode); err != nil {
		return errors.Wrap(err, "failed to write private key file")
	}

	c.publicKey = &key.PublicKey
	c.privateKey = key
	c.logger.Info("generated rsa keypair", slog.String("key_dir", c.keyDir))

	return nil
}

// PublicKeyBase64 returns the encoded public key for external verifiers.
func (c *RSACodec) PublicKeyBase64() string {
	if c.publicKey == nil {
		return ""
	}

	der, err := x509.MarshalPKIXPublicKey(c.publicKey)
	if err != nil {
		return ""
	}

	return base64.StdEncoding.EncodeToString(der)
}

// loadKeys reads the persisted keypair. Absence of either file leaves the
// codec unloaded; malformed content is an error.
func (c *RSACodec) loadKeys() error {
	publicPath := filepath.Join(c.keyDir, publicKeyFile)
	privatePath := filepath.Join(c.keyDir, privateKeyFile)

	publicRaw, pubErr := os.ReadFile(publicPath)
	privateRaw, privErr := os.ReadFile(privatePath)
	if os.IsNotExist(pubErr) || os.IsNotExist(privErr) {
		c.logger.Warn("rsa key files not found, key generation required",
			slog.String("key_dir", c.keyDir))

		return nil
	}
	if pubErr != nil {
		return errors.Wrap(pubErr, "failed to read public key file")
	}
	if privErr != nil {
		return errors.Wrap(privErr, "failed to read private key file")
	}

	publicDER, err := base64.StdEncoding.DecodeString(string(publicRaw))
	if err != nil {
		return errors.Wrap(err, "public key file is not valid base64")
	}
	publicAny, err := x509.ParsePKIXPublicKey(publicDER)
	if err != nil {
		return errors.Wrap(err, "failed to parse public key")
	}
	publicKey, ok := publicAny.(*rsa.PublicKey)
	if !ok {
		return errors.New("public key file does not contain an rsa key")
	}

	privateDER, err := base64.StdEncoding.DecodeString(string(privateRaw))
	if err != nil {
		return errors.Wrap(err, "private key file is not valid base64")
	}
	privateAny, err := x509.ParsePKCS8PrivateKey(privateDER)
	if err != nil {
		return errors.Wrap(err, "failed to parse private key")
	}
	privateKey, ok := privateAny.(*rsa.PrivateKey)
	if !ok {
		return errors.New("private key file does not contain an rsa key")
	}

	c.publicKey = publicKey
	c.privateKey = privateKey
	c.logger.Info("loaded rsa keypair", slog.String("key_dir", c.keyDir))

	return nil
}
