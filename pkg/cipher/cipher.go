package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrMalformedPayload = errors.New("malformed opaque payload")

const nonceSize = 12

// Cipher obscures quest titles and action hints before they reach the store.
// Each user gets a distinct subkey derived from the service key, so records
// leaked across accounts do not share key material.
type Cipher struct {
	key []byte
}

func New(serviceKey string) (*Cipher, error) {
	if serviceKey == "" {
		return nil, errors.New("empty cipher key")
	}
	sum := sha256.Sum256([]byte(serviceKey))
	return &Cipher{key: sum[:]}, nil
}

func (c *Cipher) userGCM(owner int64) (cipher.AEAD, error) {
	buf := make([]byte, len(c.key)+8)
	copy(buf, c.key)
	binary.BigEndian.PutUint64(buf[len(c.key):], uint64(owner))
	sub := sha256.Sum256(buf)

	block, err := aes.NewCipher(sub[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Obscure encrypts plaintext with AES-GCM and returns base64(nonce || ct).
func (c *Cipher) Obscure(owner int64, plaintext string) (string, error) {
	gcm, err := c.userGCM(owner)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Reveal is the inverse of Obscure.
func (c *Cipher) Reveal(owner int64, opaque string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(raw) < nonceSize {
		return "", ErrMalformedPayload
	}

	gcm, err := c.userGCM(owner)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return string(plain), nil
}
