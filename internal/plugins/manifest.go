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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/common-repository/syssy/internal/model"
)

// ManifestFile is the per-plugin manifest inside each plugin directory
const ManifestFile = "plugin.yaml"

// ManifestSource reads the installed plugin inventory from <dir>/<slug>/plugin.yaml
type ManifestSource struct {
	dir    string
	logger *zap.Logger
}

// NewManifestSource creates a manifest source rooted at dir
func NewManifestSource(dir string, logger *zap.Logger) *ManifestSource {
	return &ManifestSource{dir: dir, logger: logger}
}

// InstalledPlugins returns every plugin with a readable manifest, keyed by plugin id.
// A missing plugins directory yields an empty inventory. Unreadable manifests are skipped.
func (s *ManifestSource) InstalledPlugins(ctx context.Context) (map[string]*model.PluginHeader, error) {
	installed := make(map[string]*model.PluginHeader)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Plugins directory does not exist", zap.String("dir", s.dir))
			return installed, nil
		}
		return nil, fmt.Errorf("failed to read plugins directory %s: %w", s.dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		header, err := ParseManifest(filepath.Join(s.dir, entry.Name(), ManifestFile), entry.Name())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.Warn("Skipping unreadable plugin manifest",
				zap.String("slug", entry.Name()),
				zap.Error(err))
			continue
		}
		installed[header.ID] = header
	}

	return installed, nil
}

// ParseManifest reads one manifest and assigns the plugin id "<slug>/<file>".
// The file defaults to "<slug>.php".
func ParseManifest(path, slug string) (*model.PluginHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var header model.PluginHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	file := strings.TrimSpace(header.File)
	if file == "" {
		file = slug + ".php"
	}
	if strings.ContainsAny(file, `/\`) {
		return nil, fmt.Errorf("manifest %s: file must not contain a path separator: %q", path, file)
	}
	header.File = file
	header.ID = slug + "/" + file
	return &header, nil
}

// ValidPluginID reports whether id has the "<slug>/<file>" form
func ValidPluginID(id string) bool {
	slug, file, ok := strings.Cut(id, "/")
	return ok && slug != "" && file != "" && !strings.ContainsAny(file, `/\`) &&
		slug != "." && slug != ".."
}
