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

package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/model"
	"github.com/common-repository/syssy/internal/repository"
	"github.com/common-repository/syssy/internal/secrets"
)

var (
	scriptStyleTags = regexp.MustCompile(`(?is)<(script|style)[^>]*?>.*?</(script|style)>`)
	htmlTags        = regexp.MustCompile(`(?s)<[^>]*>`)
	loneLessThan    = regexp.MustCompile(`<([^a-zA-Z/!?]|$)`)
	whitespaceRuns  = regexp.MustCompile(`[\r\n\t ]+`)
	percentOctets   = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
)

// CredentialService manages the shared secret in the options store
type CredentialService struct {
	repo   repository.OptionRepository
	sealer *secrets.Sealer
	logger *zap.Logger
}

// NewCredentialService creates a credential service. sealer may be nil, in which
// case the key is stored as plain text.
func NewCredentialService(repo repository.OptionRepository, sealer *secrets.Sealer, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		repo:   repo,
		sealer: sealer,
		logger: logger,
	}
}

// APIKey returns the stored shared secret, or "" when none is configured
func (s *CredentialService) APIKey(ctx context.Context) (string, error) {
	opt, err := s.repo.GetOption(ctx, constants.ScopeSite, constants.OptionAPIKey)
	if err != nil {
		return "", fmt.Errorf("failed to read api key: %w", err)
	}
	if opt == nil {
		return "", nil
	}

	if !secrets.IsSealed(opt.Value) {
		return opt.Value, nil
	}
	if s.sealer == nil {
		return "", constants.ErrSecretSealed
	}
	return s.sealer.Open(constants.OptionAPIKey, opt.Value)
}

// SetAPIKey sanitizes and stores the shared secret. An empty value after
// sanitization deletes the key. The stored (sanitized) value is returned.
func (s *CredentialService) SetAPIKey(ctx context.Context, raw string) (string, error) {
	key := SanitizeTextField(raw)
	if key == "" {
		if err := s.repo.DeleteOption(ctx, constants.ScopeSite, constants.OptionAPIKey); err != nil {
			return "", fmt.Errorf("failed to delete api key: %w", err)
		}
		metrics.OptionWritesTotal.WithLabelValues(constants.OptionAPIKey, "delete").Inc()
		s.logger.Info("API key cleared")
		return "", nil
	}

	value := key
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(constants.OptionAPIKey, key)
		if err != nil {
			return "", fmt.Errorf("failed to seal api key: %w", err)
		}
		value = sealed
	}

	if err := s.repo.SetOption(ctx, &model.Option{
		Scope: constants.ScopeSite,
		Name:  constants.OptionAPIKey,
		Value: value,
	}); err != nil {
		return "", fmt.Errorf("failed to store api key: %w", err)
	}
	metrics.OptionWritesTotal.WithLabelValues(constants.OptionAPIKey, "set").Inc()
	s.logger.Info("API key updated", zap.Bool("sealed", s.sealer != nil))
	return key, nil
}

// DeleteAPIKey removes the key from the site and network scopes
func (s *CredentialService) DeleteAPIKey(ctx context.Context) error {
	var errs []error
	for _, scope := range []string{constants.ScopeSite, constants.ScopeNetwork} {
		if err := s.repo.DeleteOption(ctx, scope, constants.OptionAPIKey); err != nil {
			errs = append(errs, fmt.Errorf("scope %s: %w", scope, err))
			continue
		}
		metrics.OptionWritesTotal.WithLabelValues(constants.OptionAPIKey, "delete").Inc()
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to delete api key: %w", errors.Join(errs...))
	}
	s.logger.Info("API key deleted", zap.Strings("scopes", []string{constants.ScopeSite, constants.ScopeNetwork}))
	return nil
}

// SanitizeTextField cleans a single-line form value: invalid UTF-8 is rejected,
// tags are stripped, line breaks and tabs collapse into spaces, percent-encoded
// octets are removed and surrounding whitespace is trimmed.
func SanitizeTextField(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}

	if strings.Contains(s, "<") {
		s = loneLessThan.ReplaceAllString(s, "&lt;$1")
		s = scriptStyleTags.ReplaceAllString(s, "")
		s = htmlTags.ReplaceAllString(s, "")
	}
	s = whitespaceRuns.ReplaceAllString(s, " ")

	for percentOctets.MatchString(s) {
		s = percentOctets.ReplaceAllString(s, "")
	}
	s = whitespaceRuns.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
