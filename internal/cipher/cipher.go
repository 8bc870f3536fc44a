// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package cipher protects provider credentials at rest.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/crypto/hkdf"
)

const (
	keyInfo      = "provider-sync/credentials/v1"
	keySize      = 32
	nonceSize    = 12
	layoutV1     = byte(0x01)
	minimumBytes = 1 + nonceSize + 16
)

var (
	ErrEmptySecret         = errors.New("credential secret is empty")
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	ErrTamperedCiphertext  = errors.New("ciphertext failed authentication")
)

var encoding = base64.RawURLEncoding

// Cipher is AES-256-GCM keyed from a process wide secret.
type Cipher struct {
	aead stdcipher.AEAD
	rand io.Reader
}

// Encrypt returns version ‖ nonce ‖ sealed, base64url encoded. Every call
// uses a fresh nonce so equal plaintexts never share a ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", goerr.Wrap(err, "failed to read nonce")
	}

	out := make([]byte, 0, 1+nonceSize+len(plaintext)+c.aead.Overhead())
	out = append(out, layoutV1)
	out = append(out, nonce...)
	out = c.aead.Seal(out, nonce, []byte(plaintext), []byte{layoutV1})

	return encoding.EncodeToString(out), nil
}

func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := encoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	if len(raw) < minimumBytes || raw[0] != layoutV1 {
		return "", ErrMalformedCiphertext
	}

	nonce := raw[1 : 1+nonceSize]
	plaintext, err := c.aead.Open(nil, nonce, raw[1+nonceSize:], []byte{layoutV1})
	if err != nil {
		return "", ErrTamperedCiphertext
	}

	return string(plaintext), nil
}

func deriveKey(secret string) ([]byte, error) {
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, goerr.Wrap(err, "failed to derive credential key")
	}
	return key, nil
}

func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create block cipher")
	}

	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gcm")
	}

	c := new(Cipher)
	c.aead = aead
	c.rand = rand.Reader

	return c, nil
}
