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

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/model"
	"github.com/common-repository/syssy/internal/secrets"
)

func TestSanitizeTextField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "topsecret", want: "topsecret"},
		{name: "trim", input: "  topsecret \n", want: "topsecret"},
		{name: "tags stripped", input: "<b>top</b>secret", want: "topsecret"},
		{name: "script removed with content", input: "key<script>alert(1)</script>", want: "key"},
		{name: "line breaks and tabs collapse", input: "a\tb\r\nc", want: "a b c"},
		{name: "percent octets removed", input: "ab%20cd%zz", want: "abcd%zz"},
		{name: "nested percent octets", input: "x%2%200y", want: "xy"},
		{name: "lone less-than kept escaped", input: "a < b", want: "a &lt; b"},
		{name: "invalid utf8", input: "bad\xff", want: ""},
		{name: "only whitespace", input: " \t ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTextField(tt.input))
		})
	}
}

func TestCredentialService_PlainText(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	svc := NewCredentialService(repo, nil, zap.NewNop())

	key, err := svc.APIKey(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	stored, err := svc.SetAPIKey(ctx, "  topsecret\n")
	require.NoError(t, err)
	assert.Equal(t, "topsecret", stored)

	key, err = svc.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "topsecret", key)

	raw, ok := repo.raw(constants.ScopeSite, constants.OptionAPIKey)
	require.True(t, ok)
	assert.Equal(t, "topsecret", raw.Value)
}

func TestCredentialService_Sealed(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	sealer, err := secrets.NewSealer("master")
	require.NoError(t, err)
	svc := NewCredentialService(repo, sealer, zap.NewNop())

	_, err = svc.SetAPIKey(ctx, "topsecret")
	require.NoError(t, err)

	raw, ok := repo.raw(constants.ScopeSite, constants.OptionAPIKey)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(raw.Value, "sealed:v1:"))
	assert.NotContains(t, raw.Value, "topsecret")

	key, err := svc.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "topsecret", key)

	// a sealed value without a master key cannot be read
	_, err = NewCredentialService(repo, nil, zap.NewNop()).APIKey(ctx)
	assert.ErrorIs(t, err, constants.ErrSecretSealed)

	// a different master key cannot open it
	other, err := secrets.NewSealer("other")
	require.NoError(t, err)
	_, err = NewCredentialService(repo, other, zap.NewNop()).APIKey(ctx)
	var unsealErr *secrets.ErrUnsealFailed
	assert.ErrorAs(t, err, &unsealErr)
}

func TestCredentialService_EmptyValueDeletes(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	svc := NewCredentialService(repo, nil, zap.NewNop())

	_, err := svc.SetAPIKey(ctx, "topsecret")
	require.NoError(t, err)

	stored, err := svc.SetAPIKey(ctx, "<p></p>")
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, ok := repo.raw(constants.ScopeSite, constants.OptionAPIKey)
	assert.False(t, ok)
}

func TestCredentialService_DeleteAPIKey(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	svc := NewCredentialService(repo, nil, zap.NewNop())

	for _, scope := range []string{constants.ScopeSite, constants.ScopeNetwork} {
		require.NoError(t, repo.SetOption(ctx, &model.Option{Scope: scope, Name: constants.OptionAPIKey, Value: "k"}))
	}
	require.NoError(t, repo.SetOption(ctx, &model.Option{Scope: constants.ScopeSite, Name: constants.OptionActivePlugins, Value: "[]"}))

	require.NoError(t, svc.DeleteAPIKey(ctx))

	_, ok := repo.raw(constants.ScopeSite, constants.OptionAPIKey)
	assert.False(t, ok)
	_, ok = repo.raw(constants.ScopeNetwork, constants.OptionAPIKey)
	assert.False(t, ok)
	_, ok = repo.raw(constants.ScopeSite, constants.OptionActivePlugins)
	assert.True(t, ok, "other options are kept")
}
