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
	"errors"
	"sync"
	"time"

	"github.com/common-repository/syssy/internal/model"
)

// memOptionRepo is an in-memory OptionRepository for tests
type memOptionRepo struct {
	mu      sync.Mutex
	options map[string]model.Option
	now     func() time.Time
	failGet error
}

func newMemOptionRepo() *memOptionRepo {
	return &memOptionRepo{options: make(map[string]model.Option), now: time.Now}
}

func (r *memOptionRepo) key(scope, name string) string {
	return scope + "\x00" + name
}

func (r *memOptionRepo) GetOption(_ context.Context, scope, name string) (*model.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	opt, ok := r.options[r.key(scope, name)]
	if !ok || opt.Expired(r.now()) {
		return nil, nil
	}
	return &opt, nil
}

func (r *memOptionRepo) SetOption(_ context.Context, opt *model.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opt.Scope == "" || opt.Name == "" {
		return errors.New("scope and name are required")
	}
	r.options[r.key(opt.Scope, opt.Name)] = *opt
	return nil
}

func (r *memOptionRepo) DeleteOption(_ context.Context, scope, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.options, r.key(scope, name))
	return nil
}

func (r *memOptionRepo) raw(scope, name string) (model.Option, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opt, ok := r.options[r.key(scope, name)]
	return opt, ok
}

// staticInventory is a fixed InventorySource
type staticInventory map[string]*model.PluginHeader

func (s staticInventory) InstalledPlugins(context.Context) (map[string]*model.PluginHeader, error) {
	return s, nil
}

// stubChecker is an UpdateChecker returning a fixed feed or error
type stubChecker struct {
	feed   *model.UpdateFeed
	err    error
	calls  int
	active []string
}

func (c *stubChecker) Enabled() bool { return true }

func (c *stubChecker) Check(_ context.Context, _ map[string]*model.PluginHeader, active []string) (*model.UpdateFeed, error) {
	c.calls++
	c.active = active
	return c.feed, c.err
}
