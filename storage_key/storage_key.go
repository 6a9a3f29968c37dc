// Package storage_key implements the symmetric key protecting the local
// database at rest. Session data contains the bearer token, so it is never
// written to disk in clear.
package storage_key

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"github.com/varphi/go-kbi-sdk/utils"
	"github.com/ztrue/tracerr"
	"golang.org/x/crypto/scrypt"
)

var (
	// ErrorDecodeInvalidLength is returned when decoding a key of invalid length
	ErrorDecodeInvalidLength = utils.NewKbiError("STORAGE_KEY_DECODE_INVALID_LENGTH", "can't decode StorageKey, invalid length")
	// ErrorDecryptCipherTooShort is returned when the ciphertext is too short to contain a nonce
	ErrorDecryptCipherTooShort = utils.NewKbiError("STORAGE_KEY_DECRYPT_CIPHER_TOO_SHORT", "ciphertext is too short")
	// ErrorEmptyPassword is returned when deriving a key from an empty password
	ErrorEmptyPassword = utils.NewKbiError("STORAGE_KEY_EMPTY_PASSWORD", "password must not be empty")
)

const keyLength = 32

type StorageKey struct {
	key []byte
}

func Generate() (*StorageKey, error) {
	randomData, err := utils.GenerateRandomBytes(keyLength)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &StorageKey{key: randomData}, nil
}

func Decode(encoded []byte) (*StorageKey, error) {
	if len(encoded) != keyLength {
		return nil, tracerr.Wrap(ErrorDecodeInvalidLength)
	}
	key := make([]byte, keyLength)
	copy(key, encoded)
	return &StorageKey{key: key}, nil
}

func DecodeB64(encoded string) (*StorageKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, tracerr.Wrap(ErrorDecodeInvalidLength.AddDetails(err.Error()))
	}
	return Decode(raw)
}

// DeriveFromPassword derives a key from a user password with scrypt.
// The salt must be stable across runs for the database to stay readable.
func DeriveFromPassword(password string, salt []byte) (*StorageKey, error) {
	if password == "" {
		return nil, tracerr.Wrap(ErrorEmptyPassword)
	}
	N := 16384
	r := 8
	p := 1
	key, err := scrypt.Key([]byte(utils.NormalizeString(password)), salt, N, r, p, keyLength)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &StorageKey{key: key}, nil
}

func (storageKey *StorageKey) Encode() []byte {
	encoded := make([]byte, keyLength)
	copy(encoded, storageKey.key)
	return encoded
}

func (storageKey *StorageKey) EncodeB64() string {
	return base64.StdEncoding.EncodeToString(storageKey.key)
}

// Encrypt seals clearData with AES-GCM. The nonce is prepended to the
// returned ciphertext.
func (storageKey *StorageKey) Encrypt(clearData []byte) ([]byte, error) {
	aead, err := storageKey.aead()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	nonce, err := utils.GenerateRandomBytes(aead.NonceSize())
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return aead.Seal(nonce, nonce, clearData, nil), nil
}

func (storageKey *StorageKey) Decrypt(encryptedData []byte) ([]byte, error) {
	aead, err := storageKey.aead()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if len(encryptedData) < aead.NonceSize() {
		return nil, tracerr.Wrap(ErrorDecryptCipherTooShort)
	}
	nonce := encryptedData[:aead.NonceSize()]
	clearData, err := aead.Open(nil, nonce, encryptedData[aead.NonceSize():], nil)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return clearData, nil
}

func (storageKey *StorageKey) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(storageKey.key)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return cipher.NewGCM(block)
}
