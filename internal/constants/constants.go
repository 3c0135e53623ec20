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

package constants

// AgentVersion is reported in the default server software string
const AgentVersion = "1.0.22"

// Option names used in the options store
const (
	OptionAPIKey        = "syssy_api_key"
	OptionActivePlugins = "active_plugins"
	// TransientUpdatePlugins holds the last update feed response
	TransientUpdatePlugins = "_site_transient_update_plugins"
)

// Option scopes. Network options are shared by every site of a multi-site install.
const (
	ScopeSite    = "site"
	ScopeNetwork = "network"
)

// HTTP surface
const (
	APITokenHeader  = "Syssy-Api-Token"
	APIBaseRoute    = "/wp-json/syssy/v1"
	InfoRoute       = APIBaseRoute + "/info"
	AdminRoute      = "/admin/syssy"
	HealthRoute     = "/health"
	AdminFormAPIKey = "syssy_api_key"
	AdminFormPlugin = "plugin"
	AdminFormNonce  = "_syssy_nonce"
)

// Access gate decision reasons, used in logs and metrics only
const (
	DenyMissingToken     = "missing_token"
	DenySecretMissing    = "secret_not_configured"
	DenySecretUnreadable = "secret_unreadable"
	DenyInvalidToken     = "invalid_token"
	AllowValidSignature  = "valid_signature"
)

// Payload encodings for the signed snapshot
const (
	PayloadEncodingString = "string"
	PayloadEncodingObject = "object"
)
