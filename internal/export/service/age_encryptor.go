// Package service provides export payload encryption using filippo.io/age.
package service

import (
	"bytes"
	"fmt"

	"filippo.io/age"
)

// AgeEncryptor encrypts export payloads to a fixed X25519 recipient. The
// engine only ever holds the public key; decryption happens wherever the
// matching identity lives.
type AgeEncryptor struct {
	recipient *age.X25519Recipient
}

// NewAgeEncryptor parses an age X25519 public key ("age1...") and returns an
// encryptor bound to it.
func NewAgeEncryptor(publicKey string) (*AgeEncryptor, error) {
	recipient, err := age.ParseX25519Recipient(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parsing age recipient: %w", err)
	}

	return &AgeEncryptor{recipient: recipient}, nil
}

// Recipient returns the public key exports are encrypted to.
func (e *AgeEncryptor) Recipient() string {
	return e.recipient.String()
}

// Encrypt returns the age ciphertext of plaintext for the configured
// recipient.
func (e *AgeEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting export: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}
