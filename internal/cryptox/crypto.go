// Package cryptox implements the at-rest encryption used by the credential
// store: AES-GCM sealing of individual values with a key stretched from a
// per-installation keyfile secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"

	"github.com/serviya/serviya-go/internal/common"
)

const (
	keyfileSaltSize   = 16
	keyfileSecretSize = 32
	nonceSize         = 12
)

// DeriveStoreKey stretches the keyfile secret into a 256-bit AES key using
// argon2id. The salt comes from the same keyfile, so a copied database file
// is useless without the keyfile next to it.
func DeriveStoreKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext with AES-GCM under key. The random nonce is
// prepended to the returned ciphertext so values stay single-column.
func Seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	return append(nonce, aesgcm.Seal(nil, nonce, plaintext, nil)...), nil
}

// Open decrypts a value produced by Seal. Tampered or foreign-key data
// fails authentication and returns an error.
func Open(sealed, key []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.New("sealed value too short")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
}

// LoadOrCreateKeyfile reads the installation keyfile at path, creating it
// with fresh random material on first use. The file holds salt followed by
// secret and is written with 0600 permissions.
func LoadOrCreateKeyfile(path string) (secret, salt []byte, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != keyfileSaltSize+keyfileSecretSize {
			return nil, nil, fmt.Errorf("keyfile %s has unexpected size %d", path, len(data))
		}
		return data[keyfileSaltSize:], data[:keyfileSaltSize], nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("read keyfile: %w", err)
	}

	salt = common.GenerateRandByteArray(keyfileSaltSize)
	secret = common.GenerateRandByteArray(keyfileSecretSize)

	if err := os.WriteFile(path, append(append([]byte{}, salt...), secret...), 0o600); err != nil {
		return nil, nil, fmt.Errorf("write keyfile: %w", err)
	}
	return secret, salt, nil
}
