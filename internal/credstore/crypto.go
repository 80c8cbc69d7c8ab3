package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// SaltSize is the length of the random salt mixed into key derivation.
const SaltSize = 16

// scrypt cost parameters.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// ErrCorrupt is returned when a sealed value cannot be decoded or opened.
var ErrCorrupt = errors.New("credential value is corrupt")

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// NewAEAD derives an AES-256-GCM cipher from passphrase and salt.
func NewAEAD(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// seal encrypts plain with a fresh nonce and returns base64(nonce || ciphertext).
// The key name is bound as additional data so values cannot be swapped
// between keys.
func seal(aead cipher.AEAD, key, plain string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ct := aead.Seal(nonce, nonce, []byte(plain), []byte(key))
	return base64.StdEncoding.EncodeToString(ct), nil
}

// open reverses seal.
func open(aead cipher.AEAD, key, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(data) < aead.NonceSize() {
		return "", ErrCorrupt
	}
	nonce, ct := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", ErrCorrupt
	}
	return string(plain), nil
}
