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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/model"
)

// maxFeedBody bounds the update feed response that is read into memory
const maxFeedBody = 4 << 20

// FeedError represents a non-success response from the update feed
type FeedError struct {
	Code    int
	Message string
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("update feed error (%d): %s", e.Code, e.Message)
}

func (e *FeedError) Unwrap() error {
	return constants.ErrUpdateFeedResponse
}

// checkRequest is the inventory sent to the update feed
type checkRequest struct {
	Plugins map[string]checkPlugin `json:"plugins"`
	Active  []string               `json:"active"`
}

type checkPlugin struct {
	Name       string `json:"Name"`
	TextDomain string `json:"TextDomain"`
	Version    string `json:"Version"`
	PluginURI  string `json:"PluginURI,omitempty"`
}

type checkResponse struct {
	Plugins map[string]model.PluginUpdate `json:"plugins"`
}

// UpdateFeedClient queries the plugin update feed. Each check is a single attempt.
type UpdateFeedClient struct {
	client  *http.Client
	feedURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewUpdateFeedClient creates a client bound to feedURL with a per-request timeout
func NewUpdateFeedClient(feedURL string, timeout time.Duration, logger *zap.Logger) *UpdateFeedClient {
	return &UpdateFeedClient{
		client:  &http.Client{Timeout: timeout},
		feedURL: feedURL,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether a feed URL is configured
func (c *UpdateFeedClient) Enabled() bool {
	return c != nil && c.feedURL != ""
}

// Check posts the installed inventory and returns the feed document.
// Entries keyed by plugin id get that id as their plugin field when the feed omits it.
func (c *UpdateFeedClient) Check(ctx context.Context, installed map[string]*model.PluginHeader, active []string) (*model.UpdateFeed, error) {
	if !c.Enabled() {
		return nil, constants.ErrUpdateFeedDisabled
	}

	body := checkRequest{Plugins: make(map[string]checkPlugin, len(installed)), Active: active}
	if body.Active == nil {
		body.Active = []string{}
	}
	for id, p := range installed {
		body.Plugins[id] = checkPlugin{Name: p.Name, TextDomain: p.TextDomain, Version: p.Version, PluginURI: p.PluginURI}
	}

	req, err := newJSONRequest(ctx, http.MethodPost, c.feedURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build update feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update feed request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read update feed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Update feed returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("feed_url", c.feedURL))
		return nil, &FeedError{Code: resp.StatusCode, Message: truncate(string(b), 256)}
	}

	var decoded checkResponse
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrUpdateFeedResponse, err)
	}

	feed := &model.UpdateFeed{
		LastChecked: c.now().Unix(),
		Response:    make(map[string]model.PluginUpdate, len(decoded.Plugins)),
	}
	for id, update := range decoded.Plugins {
		if update.Plugin == "" {
			update.Plugin = id
		}
		feed.Response[id] = update
	}

	c.logger.Info("Update feed checked",
		zap.Int("plugins_sent", len(installed)),
		zap.Strings("updates", sortedKeys(feed.Response)))
	return feed, nil
}

func newJSONRequest(ctx context.Context, method, url string, v interface{}) (*http.Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "syssy-agent/"+constants.AgentVersion)
	return req, nil
}

func sortedKeys(m map[string]model.PluginUpdate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
