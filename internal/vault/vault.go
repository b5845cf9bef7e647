// Package vault seals model credentials at rest with a passphrase-derived
// AES-256-GCM key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// ErrNoPassphrase is returned when sealing is requested but no
// passphrase was configured.
var ErrNoPassphrase = errors.New("vault: no passphrase configured")

// Vault seals and opens opaque blobs. Each sealed blob carries its own
// random Argon2id salt and GCM nonce, so the same plaintext never seals
// to the same bytes twice.
type Vault struct {
	passphrase []byte
}

func New(passphrase string) *Vault {
	return &Vault{passphrase: []byte(passphrase)}
}

// Enabled reports whether a passphrase was configured.
func (v *Vault) Enabled() bool {
	return len(v.passphrase) > 0
}

func (v *Vault) deriveKey(salt []byte) []byte {
	return argon2.IDKey(v.passphrase, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext into a self-contained blob:
// salt || nonce || ciphertext.
func (v *Vault) Seal(plaintext []byte) ([]byte, error) {
	if !v.Enabled() {
		return nil, ErrNoPassphrase
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(v.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, plaintext, nil)
	return blob, nil
}

// Open decrypts a blob produced by Seal.
func (v *Vault) Open(blob []byte) ([]byte, error) {
	if !v.Enabled() {
		return nil, ErrNoPassphrase
	}
	if len(blob) < saltSize {
		return nil, errors.New("vault: blob too short")
	}

	salt, rest := blob[:saltSize], blob[saltSize:]

	block, err := aes.NewCipher(v.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, errors.New("vault: blob too short")
	}

	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plaintext, nil
}
