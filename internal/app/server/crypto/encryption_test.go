package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewCredentialEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		keyHex  string
		wantErr error
	}{
		{name: "valid key", keyHex: testKeyHex},
		{name: "empty key", keyHex: "", wantErr: ErrMissingKey},
		{name: "not hex", keyHex: "zz", wantErr: ErrCredential},
		{name: "wrong length", keyHex: "0001020304", wantErr: ErrCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewCredentialEncryptor(tt.keyHex)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKeyHex)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "api key", plaintext: "gum_live_abc123"},
		{name: "empty", plaintext: ""},
		{name: "unicode", plaintext: "clé-secrète-日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := enc.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, ciphertext)

			got, err := enc.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, got)
		})
	}
}

func TestEncrypt_UniqueNonce(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKeyHex)
	require.NoError(t, err)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_Tampered(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKeyHex)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("secret")
	require.NoError(t, err)

	// flip the last hex digit
	last := ciphertext[len(ciphertext)-1]
	flipped := "0"
	if last == '0' {
		flipped = "1"
	}
	tampered := ciphertext[:len(ciphertext)-1] + flipped

	_, err = enc.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrCredential)
}

func TestDecrypt_BadInput(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKeyHex)
	require.NoError(t, err)

	_, err = enc.Decrypt("not-hex")
	assert.ErrorIs(t, err, ErrCredential)

	_, err = enc.Decrypt(strings.Repeat("00", 4))
	assert.ErrorIs(t, err, ErrCredential)
}

func TestDecrypt_WrongKey(t *testing.T) {
	encA, err := NewCredentialEncryptor(testKeyHex)
	require.NoError(t, err)
	encB, err := NewCredentialEncryptor(strings.Repeat("ff", 32))
	require.NoError(t, err)

	ciphertext, err := encA.Encrypt("secret")
	require.NoError(t, err)

	_, err = encB.Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrCredential)
}
