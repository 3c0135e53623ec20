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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("master-key")
	require.NoError(t, err)

	sealed, err := s.Seal("syssy_api_key", "topsecret")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "topsecret")

	plain, err := s.Open("syssy_api_key", sealed)
	require.NoError(t, err)
	assert.Equal(t, "topsecret", plain)
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s, err := NewSealer("master-key")
	require.NoError(t, err)

	a, err := s.Seal("k", "v")
	require.NoError(t, err)
	b, err := s.Seal("k", "v")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenFailures(t *testing.T) {
	s, err := NewSealer("master-key")
	require.NoError(t, err)
	other, err := NewSealer("another-key")
	require.NoError(t, err)

	sealed, err := s.Seal("syssy_api_key", "topsecret")
	require.NoError(t, err)

	tests := []struct {
		name   string
		sealer *Sealer
		option string
		value  string
	}{
		{"wrong master key", other, "syssy_api_key", sealed},
		{"wrong option name", s, "active_plugins", sealed},
		{"plain text value", s, "syssy_api_key", "topsecret"},
		{"malformed value", s, "syssy_api_key", "sealed:v1:onlyonepart"},
		{"bad base64", s, "syssy_api_key", "sealed:v1:!!!:???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sealer.Open(tt.option, tt.value)
			require.Error(t, err)
			var unsealErr *ErrUnsealFailed
			assert.ErrorAs(t, err, &unsealErr)
		})
	}
}

func TestNewSealer_EmptyKey(t *testing.T) {
	_, err := NewSealer("  ")
	assert.ErrorIs(t, err, ErrEmptyMasterKey)
}
