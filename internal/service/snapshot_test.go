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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/model"
	"github.com/common-repository/syssy/internal/token"
)

type fakeDB struct {
	version string
	err     error
}

func (f fakeDB) ServerVersion(context.Context) (string, error) {
	return f.version, f.err
}

func TestBuildPluginList(t *testing.T) {
	installed := map[string]*model.PluginHeader{
		"foo/foo.php":       {TextDomain: "foo", Version: "1.0", Name: "Foo"},
		"bar/bar.php":       {TextDomain: "bar", PluginURI: "https://example.org/bar", Title: "Bar Title"},
		"baz/baz.php":       {TextDomain: "baz", Version: "3.0"},
		"nodomain/nd.php":   {Version: "1.0"},
		"nometa/nometa.php": {TextDomain: "nometa"},
	}
	active := []string{"foo/foo.php", "unknown/unknown.php"}
	updates := &model.UpdateFeed{Response: map[string]model.PluginUpdate{
		"foo/foo.php":         {Plugin: "foo/foo.php", NewVersion: "1.1"},
		"bar/bar.php":         {Plugin: "bar/bar.php", NewVersion: ""},
		"unknown/unknown.php": {Plugin: "unknown/unknown.php", NewVersion: "9.9"},
		"noid":                {NewVersion: "2.0"},
	}}

	list := BuildPluginList(installed, active, updates)

	require.Len(t, list, 3)
	assert.NotContains(t, list, "nodomain/nd.php")
	assert.NotContains(t, list, "nometa/nometa.php")
	assert.NotContains(t, list, "unknown/unknown.php")

	foo := list["foo/foo.php"]
	assert.Equal(t, "foo", foo.Name)
	assert.Equal(t, "Foo", foo.Title)
	assert.Equal(t, 1, foo.Active)
	require.NotNil(t, foo.NewVersion)
	assert.Equal(t, "1.1", *foo.NewVersion)
	require.NotNil(t, foo.NeedsUpdate)
	assert.Equal(t, 1, *foo.NeedsUpdate)

	bar := list["bar/bar.php"]
	assert.Equal(t, "Bar Title", bar.Title)
	assert.Equal(t, 0, bar.Active)
	require.NotNil(t, bar.NeedsUpdate)
	assert.Equal(t, 0, *bar.NeedsUpdate)
	require.NotNil(t, bar.NewVersion)
	assert.Equal(t, "", *bar.NewVersion)

	baz := list["baz/baz.php"]
	assert.Equal(t, 0, baz.Active)
	assert.Nil(t, baz.NewVersion)
	assert.Nil(t, baz.NeedsUpdate)
}

func TestBuildPluginList_Empty(t *testing.T) {
	list := BuildPluginList(nil, nil, nil)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSnapshotService_Build(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	plugins := NewPluginService(repo, staticInventory{
		"foo/foo.php": {ID: "foo/foo.php", TextDomain: "foo", Version: "1.0"},
	}, nil, time.Hour, zap.NewNop())
	require.NoError(t, plugins.Activate(ctx, "foo/foo.php"))

	site := config.SiteConfig{
		SiteURL:        "https://example.org",
		HomeURL:        "https://example.org/home",
		Title:          "Example",
		CMSVersion:     "6.4.2",
		RuntimeVersion: "go1.25.1",
	}
	svc := NewSnapshotService(site, plugins, fakeDB{version: "3.45.1"}, zap.NewNop())
	svc.hostname = func() (string, error) { return "web-1", nil }

	snapshot := svc.Build(ctx, RequestInfo{Protocol: "HTTP/1.1", ServerIP: "10.0.0.5", ServerPort: "8080"})

	assert.Equal(t, "https://example.org", snapshot.SiteURL)
	assert.Equal(t, "https://example.org/home", snapshot.HomeURL)
	assert.Equal(t, "Example", snapshot.SiteTitle)
	assert.Equal(t, "6.4.2", snapshot.CMSVersion)
	assert.Equal(t, "go1.25.1", snapshot.RuntimeVersion)
	assert.Equal(t, "syssy-agent/"+constants.AgentVersion, snapshot.ServerSoftware)
	assert.Equal(t, "3.45.1", snapshot.DBVersion)
	assert.Equal(t, "HTTP/1.1", snapshot.HTTPVersion)
	assert.Equal(t, "10.0.0.5", snapshot.ServerIP)
	assert.Equal(t, "8080", snapshot.ServerPort)
	assert.Equal(t, "web-1", snapshot.Hostname)
	require.Contains(t, snapshot.Plugins, "foo/foo.php")
	assert.Equal(t, 1, snapshot.Plugins["foo/foo.php"].Active)
}

func TestSnapshotService_BuildDegrades(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	repo.failGet = errors.New("database is locked")
	plugins := NewPluginService(repo, staticInventory{
		"foo/foo.php": {ID: "foo/foo.php", TextDomain: "foo", Version: "1.0"},
	}, nil, time.Hour, zap.NewNop())

	svc := NewSnapshotService(config.SiteConfig{ServerSoftware: "nginx/1.25"}, plugins,
		fakeDB{err: errors.New("no connection")}, zap.NewNop())
	svc.hostname = func() (string, error) { return "", errors.New("uname failed") }

	snapshot := svc.Build(ctx, RequestInfo{})
	assert.Equal(t, "nginx/1.25", snapshot.ServerSoftware)
	assert.Empty(t, snapshot.DBVersion)
	assert.Empty(t, snapshot.Hostname)
	require.Contains(t, snapshot.Plugins, "foo/foo.php")
	assert.Equal(t, 0, snapshot.Plugins["foo/foo.php"].Active)
}

func TestSnapshotService_SignedRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemOptionRepo()
	plugins := NewPluginService(repo, staticInventory{
		"foo/foo.php": {ID: "foo/foo.php", TextDomain: "foo", Version: "1.0"},
	}, nil, time.Hour, zap.NewNop())
	require.NoError(t, plugins.Activate(ctx, "foo/foo.php"))

	svc := NewSnapshotService(config.SiteConfig{}, plugins, nil, zap.NewNop())
	codec := token.NewCodec(constants.PayloadEncodingString)

	signed, err := codec.SignSnapshot(svc.Build(ctx, RequestInfo{}), "topsecret")
	require.NoError(t, err)

	decoded, err := codec.DecodeSnapshot(signed, "topsecret")
	require.NoError(t, err)
	require.Contains(t, decoded.Plugins, "foo/foo.php")
	foo := decoded.Plugins["foo/foo.php"]
	assert.Equal(t, "foo", foo.Name)
	assert.Equal(t, "1.0", foo.Version)
	assert.Equal(t, 1, foo.Active)
	assert.Nil(t, foo.NeedsUpdate)
}
