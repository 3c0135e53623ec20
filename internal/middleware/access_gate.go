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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/token"
	"github.com/common-repository/syssy/internal/utils"
)

// SecretSource provides the stored shared secret
type SecretSource interface {
	APIKey(ctx context.Context) (string, error)
}

// AccessGate admits a request only when the token header carries an HS256 token signed
// under the key derived from the stored secret. Every denial renders the standard
// not-found page; the reason is only logged and counted.
func AccessGate(secrets SecretSource, codec *token.Codec, header string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLogger(c, logger)

		deny := func(reason string, fields ...zap.Field) {
			metrics.AccessDecisionsTotal.WithLabelValues("deny", reason).Inc()
			log.Info("Access denied", append([]zap.Field{zap.String("reason", reason)}, fields...)...)
			utils.RenderNotFound(c)
		}

		tokenString := c.GetHeader(header)
		if tokenString == "" {
			deny(constants.DenyMissingToken)
			return
		}

		secret, err := secrets.APIKey(c.Request.Context())
		if err != nil {
			log.Warn("Stored secret could not be read", zap.Error(err))
			deny(constants.DenySecretUnreadable)
			return
		}
		if secret == "" {
			deny(constants.DenySecretMissing)
			return
		}

		if err := codec.VerifyAccessToken(tokenString, secret); err != nil {
			deny(constants.DenyInvalidToken, zap.Error(err))
			return
		}

		metrics.AccessDecisionsTotal.WithLabelValues("allow", constants.AllowValidSignature).Inc()
		c.Next()
	}
}
