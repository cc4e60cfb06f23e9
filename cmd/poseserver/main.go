// Command poseserver serves pose estimates over HTTP and WebSocket.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/server"
)

func main() {
	var (
		configPath string
		envFile    string
		listen     string
	)
	flag.StringVar(&configPath, "config", "", "Path to the YAML configuration")
	flag.StringVar(&envFile, "env", ".env", "Optional .env file with POSE_* overrides")
	flag.StringVar(&listen, "listen", "", "Listen address; overrides the configuration")
	flag.Parse()

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poseserver: %v\n", err)
		os.Exit(1)
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poseserver: %v\n", err)
		os.Exit(1)
	}

	engine, err := inference.NewEngineBuilder().
		WithModel(cfg.ModelArgs()).
		WithQuantized(cfg.Model.Quantized).
		WithSession(cfg.Model.Path, cfg.SessionOptions()).
		WithLogger(log).
		Build()
	if err != nil {
		log.WithError(err).Fatal("failed to load model")
	}
	defer engine.Close()

	srv := server.New(engine, engine.Model().Config(), server.Options{
		BodyLimit:     cfg.Server.BodyLimit,
		Timeout:       cfg.Pipeline.Timeout,
		MinConfidence: cfg.Render.MinConfidence,
		Logger:        log,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen(cfg.Server.Listen)
	}()

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	case err := <-errChan:
		if err != nil {
			log.WithFields(logrus.Fields{"listen": cfg.Server.Listen, "error": err}).Error("server stopped")
		}
	}
}
