package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Encrypt seals data with AES-256-GCM and returns base64(nonce || ciphertext).
func Encrypt(data, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. It fails when the key is wrong
// or the ciphertext was modified.
func Decrypt(data, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(key string) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(FixEncryptionKey(key)))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// FixEncryptionKey pads or truncates key to 32 bytes.
func FixEncryptionKey(key string) string {
	if len(key) < 32 {
		return key + strings.Repeat("0", 32-len(key))
	}
	return key[:32]
}
