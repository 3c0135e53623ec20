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

package templates

import (
	"embed"
	"html/template"
)

//go:embed settings.html
var settingsFS embed.FS

//go:embed 404.html
var notFoundPage []byte

// NotFoundPage returns the static not-found page
func NotFoundPage() []byte {
	return notFoundPage
}

// Load parses the admin page templates
func Load() (*template.Template, error) {
	return template.ParseFS(settingsFS, "settings.html")
}
