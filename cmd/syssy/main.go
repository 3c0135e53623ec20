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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/logger"
	"github.com/common-repository/syssy/internal/metrics"
	"github.com/common-repository/syssy/internal/server"
)

type options struct {
	configPath string
	uninstall  bool
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "syssy",
		Short:         "syssy serves a signed site snapshot to the SYSSY monitoring platform",
		Version:       constants.AgentVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML configuration file")
	cmd.Flags().BoolVar(&opts.uninstall, "uninstall", false, "delete the stored API key from every scope and exit")
	return cmd
}

func run(opts *options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	metrics.SetEnabled(cfg.Metrics.Enabled)
	metrics.Init()

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if opts.uninstall {
		defer srv.Close()
		if err := srv.Uninstall(context.Background()); err != nil {
			return err
		}
		log.Info("Removed stored API key", zap.String("option", constants.OptionAPIKey))
		return nil
	}

	log.Info("Starting SYSSY agent",
		zap.String("version", constants.AgentVersion),
		zap.String("config_file", opts.configPath),
		zap.String("storage_type", cfg.Storage.Type),
		zap.String("plugins_dir", cfg.Site.PluginsDir),
		zap.Bool("secret_sealing", cfg.Credentials.MasterKey != ""),
		zap.Bool("update_feed", cfg.Updates.FeedURL != ""),
	)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(&cfg.Metrics, log)
		if err := metricsServer.Start(); err != nil {
			srv.Close()
			return err
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case runErr = <-serverErr:
		if runErr != nil {
			log.Error("HTTP server stopped", zap.Error(runErr))
		}
	case sig := <-quit:
		log.Info("Shutting down SYSSY agent", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(ctx); err != nil {
			log.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("SYSSY agent stopped")
	return runErr
}
