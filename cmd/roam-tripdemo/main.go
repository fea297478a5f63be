// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package main implements the roam-tripdemo service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wneessen/roam-tripdemo/internal/api"
	"github.com/wneessen/roam-tripdemo/internal/config"
	"github.com/wneessen/roam-tripdemo/internal/events"
	"github.com/wneessen/roam-tripdemo/internal/location/gpsd"
	"github.com/wneessen/roam-tripdemo/internal/location/gpspoll"
	"github.com/wneessen/roam-tripdemo/internal/logger"
	"github.com/wneessen/roam-tripdemo/internal/presenter"
	"github.com/wneessen/roam-tripdemo/internal/sdk/loopback"
	"github.com/wneessen/roam-tripdemo/internal/session"
	"github.com/wneessen/roam-tripdemo/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT,
		os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	if *confPath != "" {
		conf, err = config.NewFromFile(filepath.Dir(*confPath), filepath.Base(*confPath))
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}
	log = logger.New(conf.LogLevel)

	if err = run(ctx, conf, log); err != nil {
		log.Error("roam-tripdemo service failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("shutting down roam-tripdemo service")
}

func run(ctx context.Context, conf *config.Config, log *logger.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	store, err := storage.Open(ctx, conf.Storage.Driver, conf.Storage.Path, conf.Storage.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", logger.Err(err))
		}
	}()

	var opts []loopback.Option
	if !conf.GPSD.Disable {
		opts = append(opts, loopback.WithLocationProvider(gpspoll.New(conf.GPSD.Host, conf.GPSD.Port)))
	}
	client := loopback.New(log, append(opts, loopback.WithAsync())...)
	defer client.Wait()

	bus := events.New(log)
	if conf.Events.AMQPURL != "" {
		sink, err := events.DialAMQP(conf.Events.AMQPURL, conf.Events.Exchange, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				log.Error("failed to close AMQP sink", logger.Err(err))
			}
		}()
		go sink.Run(ctx, bus)
	}

	sess, err := session.New(conf, client, store, bus, log)
	if err != nil {
		return err
	}
	if err = sess.Init(ctx); err != nil {
		return err
	}

	if !conf.GPSD.Disable {
		source := gpsd.New(conf.GPSD.Host, conf.GPSD.Port, log)
		go func() {
			if err := client.Feed(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("location feed stopped", logger.Err(err))
			}
		}()
	}

	if conf.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              conf.API.Listen,
		Handler:           api.New(sess, presenter.New(conf.Locale), log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("starting roam-tripdemo service", slog.String("version", version),
			slog.String("commit", commit), slog.String("date", date),
			slog.String("listen", conf.API.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server failed", logger.Err(err))
			stop()
		}
	}()

	runErr := sess.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down API server", logger.Err(err))
	}
	return runErr
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "roam-tripdemo", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
