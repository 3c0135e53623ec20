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

package model

// PluginHeader describes an installed plugin as declared by its manifest
type PluginHeader struct {
	// ID is "<slug>/<file>", the identifier used by the active list and the update feed
	ID          string `yaml:"-" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Title       string `yaml:"title" json:"title,omitempty"`
	TextDomain  string `yaml:"text_domain" json:"textDomain"`
	PluginURI   string `yaml:"plugin_uri" json:"pluginUri,omitempty"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description,omitempty"`
	Author      string `yaml:"author" json:"author,omitempty"`
	File        string `yaml:"file" json:"file,omitempty"`
}

// PluginUpdate is one entry of the update feed
type PluginUpdate struct {
	Plugin     string `json:"plugin"`
	Slug       string `json:"slug,omitempty"`
	NewVersion string `json:"new_version"`
	URL        string `json:"url,omitempty"`
	Package    string `json:"package,omitempty"`
}

// UpdateFeed is the cached update-check document
type UpdateFeed struct {
	LastChecked int64                   `json:"last_checked"`
	Response    map[string]PluginUpdate `json:"response"`
}
