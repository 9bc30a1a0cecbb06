// Package domain holds the escrow custody primitives: minting a dedicated
// keypair per split and envelope-encrypting its secret key at rest.
//
// KDF metadata is encoded into the stored salt string as
// "pbkdf2$<iterations>$<hexsalt>" so the ciphertext stays self-describing
// without extra schema fields. AES-GCM provides authenticated encryption;
// PBKDF2 (sha256) runs with 310_000 iterations.
package domain

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDF algorithm label used in salt metadata
	kdfLabel      = "pbkdf2"
	kdfIterations = 310_000 // recommended minimum; tune for your environment
)

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// deriveKey derives a 32-byte AES key from passphrase+salt using
// PBKDF2-SHA256. The caller must clear the returned copy after use.
func deriveKey(passphrase string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, 32, sha256.New)
}

// encrypt uses AES-256-GCM and returns nonce|ciphertext
func encrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, data, nil)
	return append(nonce, ciphertext...), nil
}

// decrypt expects input nonce|ciphertext
func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:nonceSize]
	ct := ciphertext[nonceSize:]
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		// do not leak the raw crypto error to callers
		return nil, errors.New("failed to decrypt data")
	}
	return plain, nil
}

// encodeSaltMeta packs algorithm, iterations and salt into a single string.
// Format: "<kdfLabel>$<iterations>$<hex-salt>"
func encodeSaltMeta(salt []byte, iterations int) string {
	return fmt.Sprintf("%s$%d$%s", kdfLabel, iterations, hex.EncodeToString(salt))
}

// decodeSaltMeta parses the stored salt format into (salt, iterations, error)
func decodeSaltMeta(meta string) ([]byte, int, error) {
	parts := strings.Split(meta, "$")
	if len(parts) != 3 {
		return nil, 0, errors.New("invalid salt metadata format")
	}
	if parts[0] != kdfLabel {
		return nil, 0, errors.New("unsupported kdf")
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, 0, errors.New("invalid kdf iterations")
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, 0, errors.New("invalid salt hex")
	}
	return salt, iter, nil
}

// Sealer envelope-encrypts escrow secret keys under the service master key.
// The raw key never reaches the document store.
type Sealer struct {
	masterKey string
}

func NewSealer(masterKey string) *Sealer {
	return &Sealer{masterKey: masterKey}
}

// Seal encrypts a hex-encoded secret key and returns the ciphertext plus
// the salt metadata to persist next to it.
func (s *Sealer) Seal(secretKeyHex string) ([]byte, string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(s.masterKey, salt, kdfIterations)
	defer clearBytes(key)

	ct, err := encrypt([]byte(secretKeyHex), key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encrypt secret key: %w", err)
	}
	return ct, encodeSaltMeta(salt, kdfIterations), nil
}

// Open decrypts a sealed secret key using the persisted salt metadata.
func (s *Sealer) Open(ciphertext []byte, saltMeta string) (string, error) {
	salt, iterations, err := decodeSaltMeta(saltMeta)
	if err != nil {
		return "", err
	}

	key := deriveKey(s.masterKey, salt, iterations)
	defer clearBytes(key)

	plain, err := decrypt(ciphertext, key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
