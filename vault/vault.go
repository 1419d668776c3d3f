// Package vault encrypts per-user, per-source secrets with a key only the user holds.
//
// Ciphertexts are hex(salt | nonce | sealed). The key is stretched with Argon2id over a random
// salt and the payload sealed with AES-256-GCM under a random nonce, so encrypting the same
// plaintext twice never yields the same ciphertext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrDecryptionFailed = errors.New("decryption failed")

const (
	saltSize = 16
	keySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

func derive(key, salt []byte) []byte {
	return argon2.IDKey(key, salt, argonTime, argonMemory, argonThreads, keySize)
}

func aead(key, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(derive(key, salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key.
func Encrypt(key string, plaintext []byte) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := aead([]byte(key), salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)

	return hex.EncodeToString(out), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Wrong keys, truncation and tampering all
// fail with ErrDecryptionFailed.
func Decrypt(key, ciphertext string) ([]byte, error) {
	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex encoded", ErrDecryptionFailed)
	}

	if len(raw) < saltSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	salt, rest := raw[:saltSize], raw[saltSize:]
	gcm, err := aead([]byte(key), salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	if len(rest) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Secret is the material stored for one user on one source: either an account password or an
// opaque set of auth values such as a login form.
type Secret struct {
	Account  string            `json:"account,omitempty"`
	Password string            `json:"password,omitempty"`
	Payload  map[string]string `json:"payload,omitempty"`
}

// Form returns the secret as a login form. Payload entries win over account and password.
func (s Secret) Form() map[string]string {
	form := make(map[string]string, len(s.Payload)+2)
	if s.Account != "" {
		form["account"] = s.Account
	}
	if s.Password != "" {
		form["password"] = s.Password
	}
	for k, v := range s.Payload {
		form[k] = v
	}
	return form
}

// Seal encrypts secret under key.
func Seal(key string, secret Secret) (string, error) {
	data, err := json.Marshal(secret)
	if err != nil {
		return "", err
	}
	return Encrypt(key, data)
}

// Open decrypts a ciphertext produced by Seal.
func Open(key, ciphertext string) (Secret, error) {
	var secret Secret

	data, err := Decrypt(key, ciphertext)
	if err != nil {
		return secret, err
	}

	if err := json.Unmarshal(data, &secret); err != nil {
		return secret, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return secret, nil
}
