// Package decrypt implements AES-128-CBC segment decryption with a fixed zero IV.
package decrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/agleyzer/hlsfetch/internal/apperror"
)

// KeySize is the required key length in bytes.
const KeySize = 16

// zeroIV is the IV for every segment, including segments whose key
// directive declares its own IV.
var zeroIV [aes.BlockSize]byte

// Decrypter decrypts segments with one key.
type Decrypter struct {
	block cipher.Block
}

// New creates a Decrypter. key is used as raw bytes and must be KeySize long.
func New(key []byte) (*Decrypter, error) {
	if len(key) != KeySize {
		return nil, apperror.Crypto(fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)), nil)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperror.Crypto("failed to create cipher", err)
	}

	return &Decrypter{block: block}, nil
}

// Decrypt decrypts data and removes its PKCS#7 padding. Each call starts
// from the zero IV; no chaining state carries over between segments.
func (d *Decrypter) Decrypt(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, apperror.Crypto(fmt.Sprintf("ciphertext length %d is not a positive multiple of %d", len(data), aes.BlockSize), nil)
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(d.block, zeroIV[:]).CryptBlocks(plaintext, data)

	return unpad(plaintext)
}

func unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize {
		return nil, apperror.Crypto(fmt.Sprintf("invalid padding length %d", n), nil)
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, apperror.Crypto("invalid padding", nil)
		}
	}

	return data[:len(data)-n], nil
}
