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

package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/client"
	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/database"
	"github.com/common-repository/syssy/internal/handler"
	"github.com/common-repository/syssy/internal/middleware"
	"github.com/common-repository/syssy/internal/plugins"
	"github.com/common-repository/syssy/internal/repository"
	"github.com/common-repository/syssy/internal/secrets"
	"github.com/common-repository/syssy/internal/service"
	"github.com/common-repository/syssy/internal/templates"
	"github.com/common-repository/syssy/internal/token"
	"github.com/common-repository/syssy/internal/utils"
)

type Server struct {
	cfg         *config.Config
	router      *gin.Engine
	db          *database.DB
	httpServer  *http.Server
	credentials *service.CredentialService
	logger      *zap.Logger
}

// NewServer opens the options store, creates the schema and wires all routes
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.NewConnection(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s, err := NewServerWithDB(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewServerWithDB wires the server on an already initialized database
func NewServerWithDB(cfg *config.Config, db *database.DB, logger *zap.Logger) (*Server, error) {
	var sealer *secrets.Sealer
	if cfg.Credentials.MasterKey != "" {
		var err error
		sealer, err = secrets.NewSealer(cfg.Credentials.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize secret sealing: %w", err)
		}
	}

	// Initialize repositories
	optionRepo := repository.NewOptionRepo(db)

	// Initialize services
	credentials := service.NewCredentialService(optionRepo, sealer, logger)
	manifests := plugins.NewManifestSource(cfg.Site.PluginsDir, logger)
	var feed service.UpdateChecker
	if cfg.Updates.FeedURL != "" {
		feed = client.NewUpdateFeedClient(cfg.Updates.FeedURL, cfg.Updates.Timeout, logger)
	}
	pluginService := service.NewPluginService(optionRepo, manifests, feed, cfg.Updates.TTL, logger)
	snapshotService := service.NewSnapshotService(cfg.Site, pluginService, db, logger)
	codec := token.NewCodec(cfg.Token.PayloadEncoding)

	// Initialize handlers
	infoHandler := handler.NewInfoHandler(credentials, snapshotService, codec, logger)
	adminHandler := handler.NewAdminHandler(credentials, pluginService, snapshotService, feed != nil, logger)

	tmpl, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.CorrelationIDMiddleware(logger),
		middleware.ErrorHandlingMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(),
	)

	// CORS runs on the router so preflight requests are answered before routing
	if cfg.CORS.Enabled {
		router.Use(cors.New(corsConfig(cfg)))
	}

	router.NoRoute(utils.RenderNotFound)
	router.GET(constants.HealthRoute, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group(constants.APIBaseRoute)
	api.Use(middleware.AccessGate(credentials, codec, cfg.Token.Header, logger))
	infoHandler.RegisterRoutes(api)

	if cfg.Admin.Enabled {
		// form tokens are bound to this process; a restart only requires reloading the page
		csrfKey := make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return nil, fmt.Errorf("failed to generate form token key: %w", err)
		}
		admin := router.Group(constants.AdminRoute,
			middleware.BasicAuthMiddleware(cfg.Admin.Users, logger),
			middleware.CSRFMiddleware(csrfKey, logger),
		)
		adminHandler.RegisterRoutes(admin)
	}

	return &Server{
		cfg:         cfg,
		router:      router,
		db:          db,
		credentials: credentials,
		logger:      logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", cfg.Token.Header}
	corsCfg.ExposeHeaders = []string{middleware.CorrelationIDHeader}

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
		zap.String("info_route", constants.InfoRoute),
		zap.Bool("admin_enabled", s.cfg.Admin.Enabled))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and closes the database
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Close releases the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Uninstall deletes the stored API key from every option scope
func (s *Server) Uninstall(ctx context.Context) error {
	return s.credentials.DeleteAPIKey(ctx)
}

// Credentials exposes the credential service, mainly for tests and the CLI
func (s *Server) Credentials() *service.CredentialService {
	return s.credentials
}

// GetRouter returns the gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
