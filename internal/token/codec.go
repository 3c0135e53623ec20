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

package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/model"
)

// DeriveKey returns the HMAC key for a shared secret: the URL-safe, unpadded base64
// encoding of the raw secret. The platform derives its key the same way.
func DeriveKey(secret string) []byte {
	return []byte(base64.RawURLEncoding.EncodeToString([]byte(secret)))
}

// Codec signs snapshots and verifies access tokens with HS256 under the derived key
type Codec struct {
	encoding string
	parser   *jwt.Parser
}

// NewCodec creates a codec writing snapshot payloads in the given encoding
// ("string" or "object"). Any other value falls back to "string".
func NewCodec(encoding string) *Codec {
	if encoding != constants.PayloadEncodingObject {
		encoding = constants.PayloadEncodingString
	}
	return &Codec{
		encoding: encoding,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// VerifyAccessToken checks an inbound token against the stored secret.
// A verified HS256 signature is sufficient; the payload content is not compared to the secret.
// Time claims (exp, nbf) are enforced when the payload carries them.
func (c *Codec) VerifyAccessToken(tokenString, secret string) error {
	if secret == "" {
		return constants.ErrSecretNotConfigured
	}
	if tokenString == "" {
		return constants.ErrMissingToken
	}

	token, err := c.parser.ParseWithClaims(tokenString, &accessClaims{}, keyFunc(secret))
	if err != nil {
		return fmt.Errorf("%w: %v", constants.ErrInvalidToken, err)
	}
	if !token.Valid {
		return constants.ErrInvalidToken
	}
	return nil
}

// SignSnapshot serializes the snapshot and signs it. An empty secret is refused.
func (c *Codec) SignSnapshot(snapshot *model.Snapshot, secret string) (string, error) {
	if secret == "" {
		return "", constants.ErrSecretNotConfigured
	}
	if snapshot == nil {
		return "", errors.New("snapshot is nil")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &snapshotClaims{snapshot: snapshot, encoding: c.encoding})
	signed, err := token.SignedString(DeriveKey(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign snapshot: %w", err)
	}
	return signed, nil
}

// DecodeSnapshot verifies a signed snapshot and returns its content.
// Both payload encodings are accepted.
func (c *Codec) DecodeSnapshot(tokenString, secret string) (*model.Snapshot, error) {
	if secret == "" {
		return nil, constants.ErrSecretNotConfigured
	}

	claims := &snapshotClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, keyFunc(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrInvalidToken, err)
	}
	if !token.Valid || claims.snapshot == nil {
		return nil, constants.ErrInvalidToken
	}
	return claims.snapshot, nil
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		return DeriveKey(secret), nil
	}
}

// accessClaims accepts any JSON payload. Registered claims are read only from objects;
// a bare string or number payload carries none.
type accessClaims struct {
	jwt.RegisteredClaims
}

func (c *accessClaims) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	return json.Unmarshal(data, &c.RegisteredClaims)
}

// snapshotClaims carries a snapshot as the token payload, either as an object or
// as a JSON string wrapping the snapshot JSON.
type snapshotClaims struct {
	jwt.RegisteredClaims
	snapshot *model.Snapshot
	encoding string
}

func (c *snapshotClaims) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(c.snapshot)
	if err != nil {
		return nil, err
	}
	if c.encoding == constants.PayloadEncodingObject {
		return body, nil
	}
	return json.Marshal(string(body))
}

func (c *snapshotClaims) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = []byte(inner)
		c.encoding = constants.PayloadEncodingString
	} else {
		c.encoding = constants.PayloadEncodingObject
	}

	snapshot := &model.Snapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return fmt.Errorf("snapshot payload: %w", err)
	}
	c.snapshot = snapshot
	return nil
}
