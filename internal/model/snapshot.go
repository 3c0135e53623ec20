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

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Snapshot is the site metadata reported to the monitoring platform.
// JSON keys are part of the wire contract with the platform.
type Snapshot struct {
	SiteURL        string     `json:"site-url"`
	HomeURL        string     `json:"home-url"`
	SiteTitle      string     `json:"site-title"`
	CMSVersion     string     `json:"cms-version"`
	RuntimeVersion string     `json:"php-version"`
	ServerSoftware string     `json:"server-software"`
	DBVersion      string     `json:"db-version"`
	HTTPVersion    string     `json:"http-version"`
	ServerIP       string     `json:"server-ip"`
	ServerPort     string     `json:"server-port"`
	Hostname       string     `json:"hostname"`
	Plugins        PluginInfo `json:"plugininfo"`
}

// PluginRecord is the per-plugin entry of a snapshot.
// NewVersion and NeedsUpdate are only set when the update feed names the plugin.
type PluginRecord struct {
	Name        string  `json:"name"`
	Title       string  `json:"title,omitempty"`
	Version     string  `json:"version"`
	Active      int     `json:"active"`
	NewVersion  *string `json:"new_version,omitempty"`
	NeedsUpdate *int    `json:"needs_update,omitempty"`
}

// PluginInfo maps plugin ids to their records.
// An empty inventory is encoded as [] to match what the platform receives from PHP hosts.
type PluginInfo map[string]*PluginRecord

func (p PluginInfo) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(map[string]*PluginRecord(p))
}

func (p *PluginInfo) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			return errors.New("plugininfo: a list form must be empty")
		}
		*p = PluginInfo{}
		return nil
	}
	var m map[string]*PluginRecord
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*p = m
	return nil
}
