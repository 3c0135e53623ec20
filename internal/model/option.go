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

import "time"

// Option is a named value in the options store
type Option struct {
	Scope     string     `json:"scope" db:"scope"`
	Name      string     `json:"name" db:"name"`
	Value     string     `json:"value" db:"value"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Expired reports whether the option carries an expiry that has passed
func (o *Option) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && !o.ExpiresAt.After(now)
}
