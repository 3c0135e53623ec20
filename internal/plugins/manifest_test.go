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

package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeManifest(t *testing.T, dir, slug, content string) {
	t.Helper()
	pluginDir := filepath.Join(dir, slug)
	require.NoError(t, os.MkdirAll(pluginDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, ManifestFile), []byte(content), 0644))
}

func TestInstalledPlugins(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "foo", `
name: Foo
text_domain: foo
version: "1.0"
`)
	writeManifest(t, dir, "bar", `
name: Bar Plugin
title: Bar
text_domain: bar
plugin_uri: https://example.org/bar
file: bar-main.php
`)
	writeManifest(t, dir, "broken", "name: [unterminated")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "no-manifest"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	source := NewManifestSource(dir, zap.NewNop())
	installed, err := source.InstalledPlugins(context.Background())
	require.NoError(t, err)

	require.Len(t, installed, 2)
	foo := installed["foo/foo.php"]
	require.NotNil(t, foo)
	assert.Equal(t, "foo", foo.TextDomain)
	assert.Equal(t, "1.0", foo.Version)
	assert.Equal(t, "foo.php", foo.File)

	bar := installed["bar/bar-main.php"]
	require.NotNil(t, bar)
	assert.Equal(t, "Bar", bar.Title)
	assert.Equal(t, "https://example.org/bar", bar.PluginURI)
}

func TestInstalledPlugins_MissingDirectory(t *testing.T) {
	source := NewManifestSource(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	installed, err := source.InstalledPlugins(context.Background())
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestParseManifest_RejectsPathInFile(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "evil", "text_domain: evil\nfile: ../evil.php\n")

	_, err := ParseManifest(filepath.Join(dir, "evil", ManifestFile), "evil")
	assert.Error(t, err)
}

func TestValidPluginID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"foo/foo.php", true},
		{"hello-dolly/hello.php", true},
		{"foo", false},
		{"/foo.php", false},
		{"foo/", false},
		{"foo/bar/baz.php", false},
		{"../foo.php", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPluginID(tt.id), tt.id)
	}
}
