package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

const keySize = 32

var (
	ErrShortKey          = errors.New("MASTER_KEY must be at least 32 bytes")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Encrypt seals plaintext with AES-256-GCM. The nonce is prepended and the
// result is base64url encoded without padding.
func Encrypt(masterKey, plaintext string) (string, error) {
	gcm, err := newGCM(masterKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func Decrypt(masterKey, encoded string) (string, error) {
	gcm, err := newGCM(masterKey)
	if err != nil {
		return "", err
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

func newGCM(masterKey string) (cipher.AEAD, error) {
	if len(masterKey) < keySize {
		return nil, ErrShortKey
	}
	block, err := aes.NewCipher([]byte(masterKey)[:keySize])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
