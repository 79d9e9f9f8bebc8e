// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package crypto implements the proxy's object-scoped envelope encryption:
// a Fernet-compatible authenticated token keyed by a PBKDF2-derived,
// per-object secret. Two different objects holding the same plaintext
// produce distinct, non-correlatable ciphertexts, and any conforming
// implementation of this token format interoperates with any other.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidToken is returned for any MAC, format, version, or padding
// mismatch during Decrypt, collapsing every Fernet failure mode into one
// sentinel as the source contract requires.
var ErrInvalidToken = errors.New("invalid token")

const (
	fernetVersion  = 0x80
	blockSize      = aes.BlockSize // 16
	ivSize         = 16
	hmacSize       = sha256.Size // 32
	keySize        = 32
	signingKeySize = 16
	headerSize     = 1 + 8 // version + timestamp
	minTokenSize   = headerSize + ivSize + blockSize + hmacSize
)

// Keyer derives the per-object key used to seal and open envelopes.
type Keyer struct {
	// Secret is the single process-wide crypto secret every derived key
	// descends from.
	Secret string
}

// NewKeyer constructs a Keyer bound to the given process secret.
func NewKeyer(secret string) Keyer {
	return Keyer{Secret: secret}
}

// DeriveKey computes the 32-byte object-scoped key:
//
//	salt = secret || objectID      (raw UTF-8 concatenation, no separator)
//	key  = PBKDF2-HMAC-SHA256(password=objectID, salt, iterations=1, len=32)
//
// The single iteration is a deliberate, cheap domain-separation step, not a
// password-stretching KDF; its security rests on Secret being high-entropy.
// DeriveKey is deterministic: equal (secret, objectID) pairs always yield
// identical bytes.
func (k Keyer) DeriveKey(objectID string) []byte {
	salt := []byte(k.Secret + objectID)
	return pbkdf2.Key([]byte(objectID), salt, 1, keySize, sha256.New)
}

// EncodeKey renders a derived key as url-safe base64, the wire/storage form
// named in the token-format contract.
func EncodeKey(key []byte) string {
	return base64.URLEncoding.EncodeToString(key)
}

// Encrypt seals plain under the key derived for objectID and returns a
// url-safe base64 Fernet-compatible token.
func (k Keyer) Encrypt(objectID string, plain []byte) ([]byte, error) {
	key := k.DeriveKey(objectID)
	return seal(key, plain, time.Now().UTC())
}

// Decrypt opens a token produced by Encrypt (or any Fernet-compatible
// implementation) using the key derived for objectID. Any malformed,
// mismatched-version, or MAC-mismatched token yields ErrInvalidToken.
func (k Keyer) Decrypt(objectID string, token []byte) ([]byte, error) {
	key := k.DeriveKey(objectID)
	return open(key, token)
}

func seal(key, plain []byte, now time.Time) ([]byte, error) {
	if len(key) != keySize {
		return nil, errors.New("crypto: key must be 32 bytes")
	}
	signingKey := key[:signingKeySize]
	encKey := key[signingKeySize:]

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plain, blockSize)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	msg := make([]byte, 0, headerSize+ivSize+len(ciphertext))
	msg = append(msg, fernetVersion)
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(now.Unix()))
	msg = append(msg, ts...)
	msg = append(msg, iv...)
	msg = append(msg, ciphertext...)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(msg)
	tag := mac.Sum(nil)

	token := append(msg, tag...)
	out := make([]byte, base64.URLEncoding.EncodedLen(len(token)))
	base64.URLEncoding.Encode(out, token)
	return out, nil
}

func open(key, encoded []byte) ([]byte, error) {
	if len(key) != keySize {
		return nil, ErrInvalidToken
	}
	signingKey := key[:signingKeySize]
	encKey := key[signingKeySize:]

	token := make([]byte, base64.URLEncoding.DecodedLen(len(encoded)))
	n, err := base64.URLEncoding.Decode(token, encoded)
	if err != nil {
		return nil, ErrInvalidToken
	}
	token = token[:n]

	if len(token) < minTokenSize {
		return nil, ErrInvalidToken
	}
	if (len(token)-headerSize-ivSize-hmacSize)%blockSize != 0 {
		return nil, ErrInvalidToken
	}

	version := token[0]
	if version != fernetVersion {
		return nil, ErrInvalidToken
	}

	msg := token[:len(token)-hmacSize]
	gotTag := token[len(token)-hmacSize:]

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(msg)
	wantTag := mac.Sum(nil)
	if !hmac.Equal(gotTag, wantTag) {
		return nil, ErrInvalidToken
	}

	iv := token[headerSize : headerSize+ivSize]
	ciphertext := token[headerSize+ivSize : len(token)-hmacSize]
	if len(ciphertext) == 0 {
		return nil, ErrInvalidToken
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, ErrInvalidToken
	}
	plainPadded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plainPadded, ciphertext)

	plain, err := pkcs7Unpad(plainPadded, blockSize)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return plain, nil
}

func pkcs7Pad(data []byte, size int) []byte {
	pad := size - len(data)%size
	padding := bytes.Repeat([]byte{byte(pad)}, pad)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%size != 0 {
		return nil, errors.New("crypto: invalid padded length")
	}
	pad := int(data[n-1])
	if pad == 0 || pad > size || pad > n {
		return nil, errors.New("crypto: invalid padding")
	}
	for _, b := range data[n-pad:] {
		if int(b) != pad {
			return nil, errors.New("crypto: invalid padding")
		}
	}
	return data[:n-pad], nil
}
