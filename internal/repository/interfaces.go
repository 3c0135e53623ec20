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

package repository

import (
	"context"

	"github.com/common-repository/syssy/internal/model"
)

// OptionRepository defines the interface for the options store
type OptionRepository interface {
	// GetOption returns nil, nil when the option is absent or expired
	GetOption(ctx context.Context, scope, name string) (*model.Option, error)
	SetOption(ctx context.Context, opt *model.Option) error
	DeleteOption(ctx context.Context, scope, name string) error
}
