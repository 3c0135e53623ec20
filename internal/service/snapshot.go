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
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/model"
)

// RequestInfo carries the per-request facts reported in a snapshot
type RequestInfo struct {
	Protocol   string
	ServerIP   string
	ServerPort string
}

// DatabaseVersioner reports the version of the backing database server
type DatabaseVersioner interface {
	ServerVersion(ctx context.Context) (string, error)
}

// SnapshotService collects site metadata into a snapshot
type SnapshotService struct {
	site     config.SiteConfig
	plugins  *PluginService
	db       DatabaseVersioner
	hostname func() (string, error)
	logger   *zap.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(site config.SiteConfig, plugins *PluginService, db DatabaseVersioner, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		site:     site,
		plugins:  plugins,
		db:       db,
		hostname: os.Hostname,
		logger:   logger,
	}
}

// Build gathers the snapshot. Sources that fail degrade to empty values and are logged.
func (s *SnapshotService) Build(ctx context.Context, req RequestInfo) *model.Snapshot {
	start := time.Now()
	defer func() {
		metrics.SnapshotBuildDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	serverSoftware := s.site.ServerSoftware
	if serverSoftware == "" {
		serverSoftware = "syssy-agent/" + constants.AgentVersion
	}

	snapshot := &model.Snapshot{
		SiteURL:        s.site.SiteURL,
		HomeURL:        s.site.HomeURL,
		SiteTitle:      s.site.Title,
		CMSVersion:     s.site.CMSVersion,
		RuntimeVersion: s.site.RuntimeVersion,
		ServerSoftware: serverSoftware,
		HTTPVersion:    req.Protocol,
		ServerIP:       req.ServerIP,
		ServerPort:     req.ServerPort,
	}

	if s.db != nil {
		version, err := s.db.ServerVersion(ctx)
		if err != nil {
			s.logger.Warn("Database version unavailable", zap.Error(err))
		}
		snapshot.DBVersion = version
	}

	hostname, err := s.hostname()
	if err != nil {
		s.logger.Warn("Hostname unavailable", zap.Error(err))
	}
	snapshot.Hostname = hostname

	installed, err := s.plugins.InstalledPlugins(ctx)
	if err != nil {
		s.logger.Warn("Plugin inventory unavailable", zap.Error(err))
	}
	active, err := s.plugins.ActivePlugins(ctx)
	if err != nil {
		s.logger.Warn("Active plugin list unavailable", zap.Error(err))
	}
	updates, err := s.plugins.PendingUpdates(ctx)
	if err != nil {
		s.logger.Warn("Update transient unavailable", zap.Error(err))
	}

	snapshot.Plugins = BuildPluginList(installed, active, updates)
	metrics.SnapshotPlugins.Set(float64(len(snapshot.Plugins)))
	return snapshot
}

// BuildPluginList produces the per-plugin records of a snapshot.
// A plugin is listed when it has a text domain and either a URI or a version.
// Update feed entries attach new_version and needs_update to listed plugins only.
func BuildPluginList(installed map[string]*model.PluginHeader, active []string, updates *model.UpdateFeed) model.PluginInfo {
	activeSet := make(map[string]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
	}

	list := make(model.PluginInfo, len(installed))
	for id, header := range installed {
		if header == nil || header.TextDomain == "" || (header.PluginURI == "" && header.Version == "") {
			continue
		}

		title := header.Title
		if title == "" {
			title = header.Name
		}
		record := &model.PluginRecord{
			Name:    header.TextDomain,
			Title:   title,
			Version: header.Version,
		}
		if _, ok := activeSet[id]; ok {
			record.Active = 1
		}
		list[id] = record
	}

	if updates == nil {
		return list
	}
	for _, update := range updates.Response {
		if update.Plugin == "" {
			continue
		}
		record, ok := list[update.Plugin]
		if !ok {
			continue
		}
		newVersion := update.NewVersion
		needsUpdate := 0
		if newVersion != "" {
			needsUpdate = 1
		}
		record.NewVersion = &newVersion
		record.NeedsUpdate = &needsUpdate
	}
	return list
}
