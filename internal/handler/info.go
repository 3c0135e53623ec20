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

package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/middleware"
	"github.com/common-repository/syssy/internal/service"
	"github.com/common-repository/syssy/internal/token"
	"github.com/common-repository/syssy/internal/utils"
)

type InfoHandler struct {
	credentials *service.CredentialService
	snapshots   *service.SnapshotService
	codec       *token.Codec
	logger      *zap.Logger
}

func NewInfoHandler(credentials *service.CredentialService, snapshots *service.SnapshotService,
	codec *token.Codec, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{
		credentials: credentials,
		snapshots:   snapshots,
		codec:       codec,
		logger:      logger,
	}
}

// GetInfo handles GET /wp-json/syssy/v1/info.
// The body is the signed snapshot encoded as a JSON string.
func (h *InfoHandler) GetInfo(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)
	ctx := c.Request.Context()

	secret, err := h.credentials.APIKey(ctx)
	if err != nil {
		log.Error("Failed to read api key", zap.Error(err))
		utils.RenderInternalError(c)
		return
	}

	snapshot := h.snapshots.Build(ctx, requestInfo(c.Request))
	signed, err := h.codec.SignSnapshot(snapshot, secret)
	if err != nil {
		if errors.Is(err, constants.ErrSecretNotConfigured) {
			metrics.SnapshotSignTotal.WithLabelValues("no_secret").Inc()
			utils.RenderNotFound(c)
			return
		}
		metrics.SnapshotSignTotal.WithLabelValues("error").Inc()
		log.Error("Failed to sign snapshot", zap.Error(err))
		utils.RenderInternalError(c)
		return
	}

	metrics.SnapshotSignTotal.WithLabelValues("success").Inc()
	log.Debug("Snapshot signed", zap.Int("plugins", len(snapshot.Plugins)))
	c.JSON(http.StatusOK, signed)
}

// RegisterRoutes registers the info route and its trailing-slash form on the gated group
func (h *InfoHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/info", h.GetInfo)
	api.GET("/info/", h.GetInfo)
}

// requestInfo reads the protocol and the local address the request arrived on
func requestInfo(r *http.Request) service.RequestInfo {
	info := service.RequestInfo{Protocol: r.Proto}

	addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr)
	if !ok || addr == nil {
		return info
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return info
	}
	info.ServerIP = host
	info.ServerPort = port
	return info
}
