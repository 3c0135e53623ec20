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
	"database/sql"
	"errors"
	"time"

	"github.com/common-repository/syssy/internal/database"
	"github.com/common-repository/syssy/internal/model"
)

type optionRow struct {
	Scope     string       `db:"scope"`
	Name      string       `db:"name"`
	Value     string       `db:"value"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// OptionRepo implements OptionRepository
type OptionRepo struct {
	db  *database.DB
	now func() time.Time
}

// NewOptionRepo creates a new option repository
func NewOptionRepo(db *database.DB) OptionRepository {
	return &OptionRepo{db: db, now: time.Now}
}

// GetOption retrieves an option by scope and name
func (r *OptionRepo) GetOption(ctx context.Context, scope, name string) (*model.Option, error) {
	var row optionRow
	query := `
		SELECT scope, name, value, expires_at, updated_at
		FROM options
		WHERE scope = ? AND name = ?
	`
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), scope, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	opt := &model.Option{
		Scope:     row.Scope,
		Name:      row.Name,
		Value:     row.Value,
		UpdatedAt: row.UpdatedAt,
	}
	if row.ExpiresAt.Valid {
		expiresAt := row.ExpiresAt.Time
		opt.ExpiresAt = &expiresAt
	}
	if opt.Expired(r.now()) {
		return nil, nil
	}
	return opt, nil
}

// SetOption inserts or replaces an option
func (r *OptionRepo) SetOption(ctx context.Context, opt *model.Option) error {
	opt.UpdatedAt = r.now().UTC()

	var expiresAt sql.NullTime
	if opt.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: opt.ExpiresAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO options (scope, name, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (scope, name) DO UPDATE
		SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), opt.Scope, opt.Name, opt.Value, expiresAt, opt.UpdatedAt)
	return err
}

// DeleteOption removes an option. Deleting an absent option is not an error.
func (r *OptionRepo) DeleteOption(ctx context.Context, scope, name string) error {
	query := `DELETE FROM options WHERE scope = ? AND name = ?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), scope, name)
	return err
}
