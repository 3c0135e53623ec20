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

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/token"
	"github.com/common-repository/syssy/internal/utils"
)

type staticSecret struct {
	secret string
	err    error
}

func (s staticSecret) APIKey(context.Context) (string, error) {
	return s.secret, s.err
}

func signedToken(t *testing.T, key []byte, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func newGateRouter(source SecretSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(utils.RenderNotFound)
	router.GET("/info",
		AccessGate(source, token.NewCodec(constants.PayloadEncodingString), constants.APITokenHeader, zap.NewNop()),
		func(c *gin.Context) { c.JSON(http.StatusOK, "signed") },
	)
	return router
}

func serve(router *gin.Engine, path, tokenValue string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tokenValue != "" {
		req.Header.Set(constants.APITokenHeader, tokenValue)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAccessGate(t *testing.T) {
	validKey := token.DeriveKey("topsecret")

	tests := []struct {
		name   string
		source SecretSource
		token  string
		allow  bool
	}{
		{
			name:   "valid token",
			source: staticSecret{secret: "topsecret"},
			token:  signedToken(t, validKey, jwt.RegisteredClaims{Subject: "platform"}),
			allow:  true,
		},
		{
			name:   "missing header",
			source: staticSecret{secret: "topsecret"},
		},
		{
			name:   "wrong signature",
			source: staticSecret{secret: "topsecret"},
			token:  signedToken(t, token.DeriveKey("guess"), jwt.RegisteredClaims{}),
		},
		{
			name:   "garbage token",
			source: staticSecret{secret: "topsecret"},
			token:  "eyJhbGciOiJIUzI1NiJ9.e30.invalid",
		},
		{
			name:   "no secret configured with empty-derived key",
			source: staticSecret{},
			token:  signedToken(t, token.DeriveKey(""), jwt.RegisteredClaims{}),
		},
		{
			name:   "secret unreadable",
			source: staticSecret{err: errors.New("sealed")},
			token:  signedToken(t, validKey, jwt.RegisteredClaims{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newGateRouter(tt.source), "/info", tt.token)
			if tt.allow {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, `"signed"`, rec.Body.String())
				return
			}
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAccessGate_DenialMatchesUnknownRoute(t *testing.T) {
	router := newGateRouter(staticSecret{secret: "topsecret"})

	denied := serve(router, "/info", "")
	unknown := serve(router, "/does-not-exist", "")

	assert.Equal(t, unknown.Code, denied.Code)
	assert.Equal(t, unknown.Body.String(), denied.Body.String())
	assert.Equal(t, unknown.Header().Get("Content-Type"), denied.Header().Get("Content-Type"))
}
