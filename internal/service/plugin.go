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
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/model"
	"github.com/common-repository/syssy/internal/plugins"
	"github.com/common-repository/syssy/internal/repository"
)

// InventorySource lists the installed plugins keyed by plugin id
type InventorySource interface {
	InstalledPlugins(ctx context.Context) (map[string]*model.PluginHeader, error)
}

// UpdateChecker queries an update feed for the installed plugins
type UpdateChecker interface {
	Enabled() bool
	Check(ctx context.Context, installed map[string]*model.PluginHeader, active []string) (*model.UpdateFeed, error)
}

// PluginService handles the plugin inventory, the active list and the update transient
type PluginService struct {
	repo   repository.OptionRepository
	source InventorySource
	feed   UpdateChecker
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewPluginService creates a new plugin service. feed may be nil when no update feed is configured.
func NewPluginService(repo repository.OptionRepository, source InventorySource, feed UpdateChecker,
	ttl time.Duration, logger *zap.Logger) *PluginService {
	return &PluginService{
		repo:   repo,
		source: source,
		feed:   feed,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// InstalledPlugins returns the installed plugin inventory
func (s *PluginService) InstalledPlugins(ctx context.Context) (map[string]*model.PluginHeader, error) {
	return s.source.InstalledPlugins(ctx)
}

// ActivePlugins returns the active plugin ids. A missing option is an empty list;
// a malformed option is logged and treated as empty.
func (s *PluginService) ActivePlugins(ctx context.Context) ([]string, error) {
	opt, err := s.repo.GetOption(ctx, constants.ScopeSite, constants.OptionActivePlugins)
	if err != nil {
		return nil, fmt.Errorf("failed to read active plugins: %w", err)
	}
	if opt == nil || opt.Value == "" {
		return []string{}, nil
	}

	var active []string
	if err := json.Unmarshal([]byte(opt.Value), &active); err != nil {
		s.logger.Warn("Ignoring malformed active plugins option", zap.Error(err))
		return []string{}, nil
	}
	return active, nil
}

// Activate adds an installed plugin to the active list
func (s *PluginService) Activate(ctx context.Context, id string) error {
	if !plugins.ValidPluginID(id) {
		return constants.ErrInvalidPluginID
	}

	installed, err := s.source.InstalledPlugins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list installed plugins: %w", err)
	}
	if _, ok := installed[id]; !ok {
		return constants.ErrPluginNotFound
	}

	active, err := s.ActivePlugins(ctx)
	if err != nil {
		return err
	}
	for _, a := range active {
		if a == id {
			return nil
		}
	}

	active = append(active, id)
	sort.Strings(active)
	if err := s.storeActive(ctx, active); err != nil {
		return err
	}
	s.logger.Info("Plugin activated", zap.String("plugin", id))
	return nil
}

// Deactivate removes a plugin from the active list. Inactive plugins are left as is.
func (s *PluginService) Deactivate(ctx context.Context, id string) error {
	if !plugins.ValidPluginID(id) {
		return constants.ErrInvalidPluginID
	}

	active, err := s.ActivePlugins(ctx)
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(active))
	for _, a := range active {
		if a != id {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == len(active) {
		return nil
	}

	if err := s.storeActive(ctx, remaining); err != nil {
		return err
	}
	s.logger.Info("Plugin deactivated", zap.String("plugin", id))
	return nil
}

func (s *PluginService) storeActive(ctx context.Context, active []string) error {
	value, err := json.Marshal(active)
	if err != nil {
		return fmt.Errorf("failed to encode active plugins: %w", err)
	}
	if err := s.repo.SetOption(ctx, &model.Option{
		Scope: constants.ScopeSite,
		Name:  constants.OptionActivePlugins,
		Value: string(value),
	}); err != nil {
		return fmt.Errorf("failed to store active plugins: %w", err)
	}
	metrics.OptionWritesTotal.WithLabelValues(constants.OptionActivePlugins, "set").Inc()
	return nil
}

// PendingUpdates returns the cached update feed, or nil when there is none.
// A malformed transient is logged and treated as absent.
func (s *PluginService) PendingUpdates(ctx context.Context) (*model.UpdateFeed, error) {
	opt, err := s.repo.GetOption(ctx, constants.ScopeNetwork, constants.TransientUpdatePlugins)
	if err != nil {
		return nil, fmt.Errorf("failed to read update transient: %w", err)
	}
	if opt == nil {
		return nil, nil
	}

	var feed model.UpdateFeed
	if err := json.Unmarshal([]byte(opt.Value), &feed); err != nil {
		s.logger.Warn("Ignoring malformed update transient", zap.Error(err))
		return nil, nil
	}
	return &feed, nil
}

// CheckUpdates queries the update feed once and stores the result as the update transient
func (s *PluginService) CheckUpdates(ctx context.Context) (*model.UpdateFeed, error) {
	if s.feed == nil || !s.feed.Enabled() {
		return nil, constants.ErrUpdateFeedDisabled
	}

	installed, err := s.source.InstalledPlugins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed plugins: %w", err)
	}
	active, err := s.ActivePlugins(ctx)
	if err != nil {
		return nil, err
	}

	feed, err := s.feed.Check(ctx, installed, active)
	if err != nil {
		metrics.UpdateChecksTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.UpdateChecksTotal.WithLabelValues("success").Inc()

	value, err := json.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update transient: %w", err)
	}
	opt := &model.Option{
		Scope: constants.ScopeNetwork,
		Name:  constants.TransientUpdatePlugins,
		Value: string(value),
	}
	if s.ttl > 0 {
		expiresAt := s.now().Add(s.ttl)
		opt.ExpiresAt = &expiresAt
	}
	if err := s.repo.SetOption(ctx, opt); err != nil {
		return nil, fmt.Errorf("failed to store update transient: %w", err)
	}
	metrics.OptionWritesTotal.WithLabelValues(constants.TransientUpdatePlugins, "set").Inc()
	return feed, nil
}
