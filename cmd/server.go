// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapgw/pkg/logger"
	"github.com/LeeDigitalWorks/zapgw/pkg/utils"

	"github.com/rs/zerolog"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func startHTTPServer(name string, handler http.Handler, ip string, port int) *http.Server {
	addr := utils.JoinHostPort(ip, port)
	listener, err := utils.NewListener(addr)
	if err != nil {
		logger.Fatal().Err(err).Str("server", name).Msg("failed to create HTTP listener")
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          logger.StandardLogger(name, zerolog.WarnLevel),
	}
	go func() {
		logger.Info().Str("server", name).Str("http_addr", addr).Msg("Starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("server", name).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func shutdownHTTPServer(name string, s *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Str("server", name).Msg("HTTP server shutdown incomplete")
	}
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
}
