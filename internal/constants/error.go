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

import "errors"

var (
	ErrSecretNotConfigured = errors.New("shared secret is not configured")
	ErrSecretSealed        = errors.New("stored secret is sealed and no master key is configured")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrMissingToken        = errors.New("access token is missing")
)

var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrInvalidPluginID     = errors.New("invalid plugin id")
	ErrUpdateFeedDisabled  = errors.New("update feed url is not configured")
	ErrUpdateFeedResponse  = errors.New("unexpected update feed response")
	ErrUnsupportedDatabase = errors.New("unsupported database driver")
)
