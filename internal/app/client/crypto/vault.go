// Package crypto protects the session token at rest. The token is the
// only secret the client holds; it is encrypted with a key derived
// from the user's passphrase and never written in clear text.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	keyLength        = 32 // AES-256
	saltLength       = 16

	vaultVersion     = 1
	vaultPermissions = 0600
)

var ErrWrongPassphrase = errors.New("wrong passphrase")

type vaultFile struct {
	Version    int    `json:"version"`
	Algorithm  string `json:"algorithm"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
	Ciphertext string `json:"ciphertext"`
}

// Vault stores one secret in an encrypted file.
type Vault struct {
	path string
}

func NewVault(path string) *Vault {
	return &Vault{path: path}
}

// Exists reports whether a sealed secret is present on disk.
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.path)
	return err == nil
}

// Seal encrypts the secret with a passphrase-derived key and writes it.
func (v *Vault) Seal(secret, passphrase string) error {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)
	ciphertext, err := encrypt([]byte(secret), key)
	if err != nil {
		return err
	}

	file := vaultFile{
		Version:    vaultVersion,
		Algorithm:  "PBKDF2-SHA256+AES-256-GCM",
		Salt:       hex.EncodeToString(salt),
		Iterations: pbkdf2Iterations,
		Ciphertext: hex.EncodeToString(ciphertext),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}
	if err := os.WriteFile(v.path, data, vaultPermissions); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

// Open decrypts the stored secret with the passphrase.
func (v *Vault) Open(passphrase string) (string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return "", fmt.Errorf("read vault: %w", err)
	}

	var file vaultFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("decode vault: %w", err)
	}

	salt, err := hex.DecodeString(file.Salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	ciphertext, err := hex.DecodeString(file.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	iterations := file.Iterations
	if iterations == 0 {
		iterations = pbkdf2Iterations
	}
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keyLength, sha256.New)

	secret, err := decrypt(ciphertext, key)
	if err != nil {
		return "", ErrWrongPassphrase
	}
	return string(secret), nil
}

// Remove deletes the sealed secret.
func (v *Vault) Remove() error {
	err := os.Remove(v.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, payload := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, payload, nil)
}
