// Package codec seals the reference classification file at rest.
//
// The on-disk layout is a 12-byte random nonce followed by the AES-256-GCM
// ciphertext of the plaintext table. The default key is compiled into the
// binary: it keeps casual readers from opening the answer file, it is NOT a
// security boundary. Anyone holding the binary can decrypt the reference.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

const (
	KeySize   = 32
	NonceSize = 12
)

// ErrDecrypt covers a wrong key, a truncated file and corrupt ciphertext.
var ErrDecrypt = errors.New("decryption failure")

var embeddedKey = [KeySize]byte{
	232, 222, 212, 202, 166, 177, 188, 199, 87, 34, 44, 10, 102, 1, 9, 0, 32, 22, 22, 20, 136, 177,
	128, 199, 87, 32, 44, 10, 102, 2, 4, 6,
}

// Codec encrypts and decrypts reference files. The key is held in a
// memguard enclave and only unsealed for the duration of one operation.
// A Codec is safe for concurrent use.
type Codec struct {
	key *memguard.Enclave
}

// New returns a codec for a 32-byte key. The caller's slice is left intact.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	buf := make([]byte, KeySize)
	copy(buf, key)
	return &Codec{key: memguard.NewEnclave(buf)}, nil
}

// FromHex returns a codec for a hex-encoded key.
func FromHex(s string) (*Codec, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	return New(key)
}

// Default returns a codec using the key embedded in the binary.
func Default() *Codec {
	c, err := New(embeddedKey[:])
	if err != nil {
		panic(err) // embedded key has a fixed size
	}
	return c
}

func (c *Codec) aead() (cipher.AEAD, func(), error) {
	lb, err := c.key.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open key enclave: %w", err)
	}
	block, err := aes.NewCipher(lb.Bytes())
	if err != nil {
		lb.Destroy()
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		lb.Destroy()
		return nil, nil, err
	}
	return gcm, lb.Destroy, nil
}

// Encrypt seals plain under a fresh random nonce and returns nonce||ciphertext.
func (c *Codec) Encrypt(plain []byte) ([]byte, error) {
	gcm, done, err := c.aead()
	if err != nil {
		return nil, err
	}
	defer done()

	nonce := make([]byte, NonceSize, NonceSize+len(plain)+gcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt opens a nonce||ciphertext blob produced by Encrypt.
func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, fmt.Errorf("%w: input is %d bytes, shorter than the nonce", ErrDecrypt, len(blob))
	}
	gcm, done, err := c.aead()
	if err != nil {
		return nil, err
	}
	defer done()

	plain, err := gcm.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plain, nil
}
