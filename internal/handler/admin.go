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
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/middleware"
	"github.com/common-repository/syssy/internal/service"
	"github.com/common-repository/syssy/internal/utils"
)

// Notices shown after a redirect, keyed by the "updated" or "error" query value
var (
	adminNotices = map[string]string{
		"key":         "Settings saved.",
		"key_cleared": "API key removed.",
		"activated":   "Plugin activated.",
		"deactivated": "Plugin deactivated.",
		"updates":     "Update check complete.",
	}
	adminErrors = map[string]string{
		"plugin_not_found": "Plugin not found.",
		"invalid_plugin":   "Invalid plugin id.",
		"updates_disabled": "No update feed is configured.",
		"update_failed":    "Update check failed.",
	}
)

type pluginRow struct {
	ID         string
	Version    string
	Active     bool
	NewVersion string
}

type settingsPage struct {
	Action             string
	ActivateAction     string
	DeactivateAction   string
	CheckUpdatesAction string
	Nonce              string
	Notice             string
	NoticeError        bool

	APIKey         string
	CMSVersion     string
	RuntimeVersion string
	ServerSoftware string
	DBVersion      string
	AgentVersion   string

	Plugins        []pluginRow
	UpdatesEnabled bool
	LastChecked    string
}

type AdminHandler struct {
	credentials    *service.CredentialService
	plugins        *service.PluginService
	snapshots      *service.SnapshotService
	updatesEnabled bool
	logger         *zap.Logger
}

func NewAdminHandler(credentials *service.CredentialService, plugins *service.PluginService,
	snapshots *service.SnapshotService, updatesEnabled bool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		credentials:    credentials,
		plugins:        plugins,
		snapshots:      snapshots,
		updatesEnabled: updatesEnabled,
		logger:         logger,
	}
}

// GetSettings handles GET /admin/syssy
func (h *AdminHandler) GetSettings(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)
	ctx := c.Request.Context()

	page := settingsPage{
		Action:             constants.AdminRoute,
		ActivateAction:     constants.AdminRoute + "/plugins/activate",
		DeactivateAction:   constants.AdminRoute + "/plugins/deactivate",
		CheckUpdatesAction: constants.AdminRoute + "/updates/check",
		Nonce:              middleware.GetCSRFToken(c),
		AgentVersion:       constants.AgentVersion,
		UpdatesEnabled:     h.updatesEnabled,
	}
	if msg, ok := adminNotices[c.Query("updated")]; ok {
		page.Notice = msg
	}
	if msg, ok := adminErrors[c.Query("error")]; ok {
		page.Notice = msg
		page.NoticeError = true
	}

	key, err := h.credentials.APIKey(ctx)
	if err != nil {
		log.Warn("Stored api key cannot be read", zap.Error(err))
		page.Notice = "The stored API key cannot be read. Save a new key to replace it."
		page.NoticeError = true
	}
	page.APIKey = key

	snapshot := h.snapshots.Build(ctx, requestInfo(c.Request))
	page.CMSVersion = snapshot.CMSVersion
	page.RuntimeVersion = snapshot.RuntimeVersion
	page.ServerSoftware = snapshot.ServerSoftware
	page.DBVersion = snapshot.DBVersion

	rows, lastChecked, err := h.pluginRows(c)
	if err != nil {
		log.Warn("Plugin inventory unavailable", zap.Error(err))
	}
	page.Plugins = rows
	page.LastChecked = lastChecked

	c.HTML(http.StatusOK, "settings.html", page)
}

func (h *AdminHandler) pluginRows(c *gin.Context) ([]pluginRow, string, error) {
	ctx := c.Request.Context()

	installed, err := h.plugins.InstalledPlugins(ctx)
	if err != nil {
		return nil, "", err
	}
	active, err := h.plugins.ActivePlugins(ctx)
	if err != nil {
		return nil, "", err
	}
	updates, err := h.plugins.PendingUpdates(ctx)
	if err != nil {
		return nil, "", err
	}

	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	rows := make([]pluginRow, 0, len(installed))
	for id, header := range installed {
		row := pluginRow{ID: id, Version: header.Version, Active: activeSet[id]}
		if updates != nil {
			if update, ok := updates.Response[id]; ok {
				row.NewVersion = update.NewVersion
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	lastChecked := ""
	if updates != nil && updates.LastChecked > 0 {
		lastChecked = time.Unix(updates.LastChecked, 0).UTC().Format(time.RFC1123)
	}
	return rows, lastChecked, nil
}

// SaveSettings handles POST /admin/syssy
func (h *AdminHandler) SaveSettings(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)

	stored, err := h.credentials.SetAPIKey(c.Request.Context(), c.PostForm(constants.AdminFormAPIKey))
	if err != nil {
		log.Error("Failed to save api key", zap.Error(err))
		utils.RenderInternalError(c)
		return
	}
	if stored == "" {
		redirectAdmin(c, "updated", "key_cleared")
		return
	}
	redirectAdmin(c, "updated", "key")
}

// ActivatePlugin handles POST /admin/syssy/plugins/activate
func (h *AdminHandler) ActivatePlugin(c *gin.Context) {
	h.changePlugin(c, h.plugins.Activate, "activated")
}

// DeactivatePlugin handles POST /admin/syssy/plugins/deactivate
func (h *AdminHandler) DeactivatePlugin(c *gin.Context) {
	h.changePlugin(c, h.plugins.Deactivate, "deactivated")
}

func (h *AdminHandler) changePlugin(c *gin.Context, change func(ctx context.Context, id string) error, notice string) {
	log := middleware.GetLogger(c, h.logger)
	id := c.PostForm(constants.AdminFormPlugin)

	if err := change(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, constants.ErrInvalidPluginID):
			redirectAdmin(c, "error", "invalid_plugin")
		case errors.Is(err, constants.ErrPluginNotFound):
			redirectAdmin(c, "error", "plugin_not_found")
		default:
			log.Error("Failed to change plugin state", zap.String("plugin", id), zap.Error(err))
			utils.RenderInternalError(c)
		}
		return
	}
	redirectAdmin(c, "updated", notice)
}

// CheckUpdates handles POST /admin/syssy/updates/check
func (h *AdminHandler) CheckUpdates(c *gin.Context) {
	log := middleware.GetLogger(c, h.logger)

	if _, err := h.plugins.CheckUpdates(c.Request.Context()); err != nil {
		if errors.Is(err, constants.ErrUpdateFeedDisabled) {
			redirectAdmin(c, "error", "updates_disabled")
			return
		}
		log.Warn("Update check failed", zap.Error(err))
		redirectAdmin(c, "error", "update_failed")
		return
	}
	redirectAdmin(c, "updated", "updates")
}

// RegisterRoutes registers the admin routes on a group mounted at /admin/syssy
func (h *AdminHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("", h.GetSettings)
	admin.POST("", h.SaveSettings)
	admin.POST("/plugins/activate", h.ActivatePlugin)
	admin.POST("/plugins/deactivate", h.DeactivatePlugin)
	admin.POST("/updates/check", h.CheckUpdates)
}

func redirectAdmin(c *gin.Context, key, value string) {
	c.Redirect(http.StatusSeeOther, constants.AdminRoute+"?"+url.Values{key: {value}}.Encode())
}
