// Command serve exposes the customer segmentation over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bankcli/internal/app"
	"bankcli/internal/config"
	"bankcli/internal/infrastructure"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("serve failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "listen port")
	fs.StringVar(&cfg.Paths.DataDir, "data", cfg.Paths.DataDir, "directory holding customers.csv and transactions.csv")
	fs.IntVar(&cfg.Segmentation.K, "k", cfg.Segmentation.K, "number of clusters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	application, err := app.NewApplication(cfg, nil, providers, logger)
	if err != nil {
		return err
	}
	return application.Run()
}
