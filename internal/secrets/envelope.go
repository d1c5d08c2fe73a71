// Package secrets seals tenant-owned secret payloads, such as cloud
// credentials, for storage as a single text value.
//
// Sealed format: base64(hex(iv) ":" hex(tag) ":" hex(ciphertext)) using
// AES-256-GCM with a 16 byte IV and a 16 byte tag.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	ivSize  = 16
	tagSize = 16
)

var (
	// ErrDecrypt is returned for any malformed envelope or authentication failure.
	ErrDecrypt = errors.New("failed to decrypt credentials")
	ErrKey     = errors.New("encryption key must be 64 hex characters")
)

// Envelope encrypts and decrypts structured payloads with a process-wide key.
// It is safe for concurrent use.
type Envelope struct {
	aead cipher.AEAD
}

// ParseKey decodes a 64 character hex string into an AES-256 key.
func ParseKey(hexKey string) ([]byte, error) {
	hexKey = strings.TrimSpace(hexKey)
	if len(hexKey) != KeySize*2 {
		return nil, ErrKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ErrKey
	}
	return key, nil
}

// NewEnvelope returns an Envelope for a 32 byte key.
func NewEnvelope(key []byte) (*Envelope, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Envelope{aead: aead}, nil
}

// Encrypt serializes payload as JSON and seals it under a fresh random IV.
func (e *Envelope) Encrypt(payload any) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := e.aead.Seal(nil, iv, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	joined := hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext)
	return base64.StdEncoding.EncodeToString([]byte(joined)), nil
}

// Decrypt opens sealed and unmarshals the payload into v. The tag is verified
// before any plaintext is released; every failure is ErrDecrypt.
func (e *Envelope) Decrypt(sealed string, v any) error {
	plaintext, err := e.open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return nil
}

func (e *Envelope) open(sealed string) ([]byte, error) {
	joined, err := base64.StdEncoding.Strict().DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", ErrDecrypt, err)
	}

	parts := strings.Split(string(joined), ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrDecrypt, len(parts))
	}

	iv, err := decodeHex(parts[0])
	if err != nil || len(iv) != ivSize {
		return nil, fmt.Errorf("%w: invalid iv", ErrDecrypt)
	}
	tag, err := decodeHex(parts[1])
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: invalid tag", ErrDecrypt)
	}
	ciphertext, err := decodeHex(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext", ErrDecrypt)
	}

	plaintext, err := e.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return plaintext, nil
}

// decodeHex accepts only canonical lowercase hex so every encoded byte has
// exactly one textual form.
func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if hex.EncodeToString(b) != s {
		return nil, errors.New("non-canonical hex")
	}
	return b, nil
}
