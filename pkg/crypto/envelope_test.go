// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyIsDeterministic(t *testing.T) {
	k := NewKeyer("top-secret")
	a := k.DeriveKey("some-object")
	b := k.DeriveKey("some-object")
	assert.Equal(t, a, b)
	assert.Len(t, a, keySize)
}

func TestDeriveKeyIsObjectScoped(t *testing.T) {
	k := NewKeyer("top-secret")
	a := k.DeriveKey("object-a")
	b := k.DeriveKey("object-b")
	assert.NotEqual(t, a, b)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	k := NewKeyer("top-secret")
	plain := []byte("You can read binary?")

	token, err := k.Encrypt("some-id-before_Sample_file.pdf", plain)
	require.NoError(t, err)

	got, err := k.Decrypt("some-id-before_Sample_file.pdf", token)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestEncryptIsNonCorrelatableAcrossObjects(t *testing.T) {
	k := NewKeyer("top-secret")
	plain := []byte("identical plaintext")

	tokenA, err := k.Encrypt("object-a", plain)
	require.NoError(t, err)
	tokenB, err := k.Encrypt("object-b", plain)
	require.NoError(t, err)

	assert.NotEqual(t, tokenA, tokenB)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	k := NewKeyer("top-secret")
	_, err := k.Decrypt("some-id-before_Sample_file.pdf", []byte("something else"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestDecryptRejectsTamperedToken(t *testing.T) {
	k := NewKeyer("top-secret")
	token, err := k.Encrypt("obj", []byte("payload"))
	require.NoError(t, err)

	tampered := append([]byte{}, token...)
	tampered[0] ^= 0x01
	_, err = k.Decrypt("obj", tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestDecryptRejectsWrongObjectKey(t *testing.T) {
	k := NewKeyer("top-secret")
	token, err := k.Encrypt("obj-a", []byte("payload"))
	require.NoError(t, err)

	_, err = k.Decrypt("obj-b", token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestEncodeKeyLength(t *testing.T) {
	k := NewKeyer("top-secret")
	key := k.DeriveKey("obj")
	encoded := EncodeKey(key)
	assert.Len(t, encoded, 44)
}
