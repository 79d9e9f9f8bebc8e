// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package hooks implements the proxy's default pre-upload and
// post-retrieve hooks: symmetric envelope encryption keyed by object name.
// They register under reserved names because the handler's result
// substitution lookup depends on them by name.
package hooks

import (
	"fmt"
	"net/http"

	"github.com/s3hookproxy/proxy/pkg/crypto"
	"github.com/s3hookproxy/proxy/pkg/event"
	"github.com/s3hookproxy/proxy/pkg/s3object"
)

const (
	// EncryptHookName is the reserved name the PUT handler looks up on
	// pre_upload_before_check results to find the encrypted payload.
	EncryptHookName = "hook_encrypt_data"
	// DecryptHookName is the reserved name the GET handler looks up on
	// post_retrieve_data results to find the decrypted payload.
	DecryptHookName = "hook_decrypt_data"
)

// Default wraps a crypto.Keyer and produces the two default hooks.
type Default struct {
	Keyer crypto.Keyer
}

// NewDefault constructs the default hook set bound to the given process
// secret.
func NewDefault(secret string) Default {
	return Default{Keyer: crypto.NewKeyer(secret)}
}

// RegisterOn registers the default encrypt hook on pre_upload_before_check
// and the default decrypt hook on post_retrieve_data, under their reserved
// names, at the default position. The other two events get no hooks.
func (d Default) RegisterOn(reg *event.Registry) error {
	if err := reg.PreUploadBeforeCheck.Register(d.EncryptHook, EncryptHookName, nil); err != nil {
		return err
	}
	if err := reg.PostRetrieveData.Register(d.DecryptHook, DecryptHookName, nil); err != nil {
		return err
	}
	return nil
}

// EncryptHook encrypts data using the key derived from the request's
// object name. It fails only when the request path names no object or the
// encryption itself returns an error.
func (d Default) EncryptHook(r *http.Request, data []byte) (bool, any) {
	obj, ok := s3object.Extract(r)
	if !ok {
		return false, "cannot encrypt: request is not an object upload"
	}
	token, err := d.Keyer.Encrypt(obj.Name, data)
	if err != nil {
		return false, fmt.Sprintf("encryption of %s failed.", obj.Name)
	}
	return true, token
}

// DecryptHook attempts to decrypt data using the key derived from the
// request's object name. On failure it reports decryptFailedMsg verbatim,
// not a per-object diagnostic: the upstream default_hooks.py builds this
// string from a plain literal rather than an f-string, so "{s3obj}" is
// never interpolated there either.
func (d Default) DecryptHook(r *http.Request, data []byte) (bool, any) {
	obj, ok := s3object.Extract(r)
	if !ok {
		return false, "cannot decrypt: request is not an object"
	}
	plain, err := d.Keyer.Decrypt(obj.Name, data)
	if err != nil {
		return false, decryptFailedMsg
	}
	return true, plain
}

// decryptFailedMsg is the literal diagnostic text for a failed decryption.
const decryptFailedMsg = "Decryption of {s3obj} failed."
