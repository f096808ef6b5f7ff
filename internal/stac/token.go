package stac

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrInvalidToken is returned when a pagination token fails to decode or
// authenticate. Tampered, truncated, and foreign-key tokens all land here.
var ErrInvalidToken = errors.New("invalid pagination token")

// TokenCodec turns upstream continuation URLs into opaque pagination tokens.
// The URL is sealed with an authenticated cipher so clients can neither read
// the upstream address nor forge a token pointing elsewhere.
type TokenCodec struct {
	key [32]byte
}

// NewTokenCodec creates a codec with the given secret key.
func NewTokenCodec(key [32]byte) *TokenCodec {
	return &TokenCodec{key: key}
}

// NewRandomTokenCodec creates a codec with an ephemeral random key. Tokens
// minted by it do not survive a restart.
func NewRandomTokenCodec() (*TokenCodec, error) {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}
	return NewTokenCodec(key), nil
}

// ParseTokenKey decodes a base64url-encoded 32-byte key.
func ParseTokenKey(encoded string) ([32]byte, error) {
	var key [32]byte
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return key, fmt.Errorf("token key is not valid base64url: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("token key must be %d bytes, got %d", len(key), len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// Mint seals a continuation URL into an opaque token.
func (c *TokenCodec) Mint(continuationURL string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(continuationURL), &nonce, &c.key)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Resolve opens a token back into the continuation URL it was minted from.
func (c *TokenCodec) Resolve(token string) (string, error) {
	sealed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if len(sealed) < 24 {
		return "", ErrInvalidToken
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.key)
	if !ok {
		return "", ErrInvalidToken
	}
	return string(plaintext), nil
}
