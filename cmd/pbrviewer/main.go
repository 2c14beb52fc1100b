package main

import (
	"context"
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"github.com/vkngwrapper/pbr-renderer/internal/engine"
	"github.com/vkngwrapper/pbr-renderer/internal/logging"
	"golang.org/x/exp/slog"
)

func init() {
	// SDL must be driven from the main thread.
	runtime.LockOSThread()
}

func run() error {
	configPath := flag.String("config", config.DefaultPath, "TOML configuration file")
	modelPath := flag.String("model", "", "override the model path from the configuration")
	logLevel := flag.String("log-level", "", "override the log level (debug, info, warn, error)")
	noValidation := flag.Bool("no-validation", false, "disable the Vulkan validation layers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *noValidation {
		cfg.Validation = false
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	app, err := engine.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run()
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
