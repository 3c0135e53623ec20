/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// sealedPrefix marks a value produced by Seal
const sealedPrefix = "sealed:v1:"

var ErrEmptyMasterKey = errors.New("master key is empty")

// ErrUnsealFailed indicates a sealed value could not be opened
type ErrUnsealFailed struct {
	Name  string
	Cause error
}

func (e *ErrUnsealFailed) Error() string {
	return fmt.Sprintf("failed to unseal option %s: %v", e.Name, e.Cause)
}

func (e *ErrUnsealFailed) Unwrap() error {
	return e.Cause
}

// Sealer encrypts option values at rest with XChaCha20-Poly1305.
// The option name is bound as additional data so a sealed value cannot be moved to another option.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the AEAD key from the configured master key
func NewSealer(masterKey string) (*Sealer, error) {
	if strings.TrimSpace(masterKey) == "" {
		return nil, ErrEmptyMasterKey
	}

	derived := sha256.Sum256([]byte(masterKey))
	aead, err := chacha20poly1305.NewX(derived[:])
	if err != nil {
		return nil, fmt.Errorf("init xchacha20poly1305: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// IsSealed reports whether a stored value was produced by Seal
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Seal encrypts plaintext for the named option
func (s *Sealer) Seal(name, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := s.aead.Seal(nil, nonce, []byte(plaintext), []byte(name))
	return sealedPrefix +
		base64.RawStdEncoding.EncodeToString(nonce) + ":" +
		base64.RawStdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal for the same option name
func (s *Sealer) Open(name, sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", &ErrUnsealFailed{Name: name, Cause: errors.New("value is not sealed")}
	}

	parts := strings.SplitN(strings.TrimPrefix(sealed, sealedPrefix), ":", 2)
	if len(parts) != 2 {
		return "", &ErrUnsealFailed{Name: name, Cause: errors.New("malformed sealed value")}
	}
	nonce, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", &ErrUnsealFailed{Name: name, Cause: err}
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", &ErrUnsealFailed{Name: name, Cause: err}
	}
	if len(nonce) != s.aead.NonceSize() {
		return "", &ErrUnsealFailed{Name: name, Cause: errors.New("invalid nonce size")}
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", &ErrUnsealFailed{Name: name, Cause: err}
	}
	return string(plaintext), nil
}
