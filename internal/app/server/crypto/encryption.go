package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMissingKey means no encryption key was configured. Sessions
	// cannot be created without one; this is a startup error.
	ErrMissingKey = errors.New("session encryption key is not configured")

	// ErrCredential wraps any encrypt/decrypt failure. Callers must
	// surface it, never fall back to storing plaintext.
	ErrCredential = errors.New("credential encryption error")
)

// CredentialEncryptor encrypts upstream credentials before they are
// persisted with a session. AES-256-GCM with a random nonce per value.
type CredentialEncryptor struct {
	key []byte
}

// NewCredentialEncryptor builds an encryptor from a hex-encoded 32-byte key.
func NewCredentialEncryptor(keyHex string) (*CredentialEncryptor, error) {
	if keyHex == "" {
		return nil, ErrMissingKey
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes hex", ErrCredential)
	}

	return &CredentialEncryptor{key: key}, nil
}

// Encrypt encrypts a credential for storage. Output is hex(nonce || ciphertext).
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("%w: create cipher: %v", ErrCredential, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: create GCM: %v", ErrCredential, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generate nonce: %v", ErrCredential, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *CredentialEncryptor) Decrypt(ciphertextHex string) (string, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: decode hex: %v", ErrCredential, err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("%w: create cipher: %v", ErrCredential, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: create GCM: %v", ErrCredential, err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrCredential)
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext or wrong key", ErrCredential)
	}

	return string(plaintext), nil
}
