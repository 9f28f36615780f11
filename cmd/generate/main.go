// Command generate writes a synthetic customers.csv and transactions.csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bankcli/internal/config"
	"bankcli/internal/exporter"
	"bankcli/internal/generator"
	"bankcli/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("generate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.IntVar(&cfg.Generator.NumCustomers, "customers", cfg.Generator.NumCustomers, "number of customers")
	fs.IntVar(&cfg.Generator.NumTransactions, "transactions", cfg.Generator.NumTransactions, "number of transactions")
	fs.Int64Var(&cfg.Generator.Seed, "seed", cfg.Generator.Seed, "random seed")
	fs.StringVar(&cfg.Paths.DataDir, "out", cfg.Paths.DataDir, "output directory for the CSV files")
	xlsx := fs.String("xlsx", "", "also write both tables to this workbook")
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
	ctx = infrastructure.EnsureTraceID(ctx)

	gen, err := generator.New(cfg.Generator, logger)
	if err != nil {
		return err
	}
	dataset, err := gen.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}

	csvWriter := exporter.NewCSVWriter(cfg.Paths, logger)
	if err := exporter.NewDatasetExporter(csvWriter).Export(dataset.Customers, dataset.Transactions); err != nil {
		return err
	}
	if *xlsx != "" {
		err := exporter.NewWorkbookExporter(logger).Export(*xlsx, exporter.WorkbookData{
			Customers:    dataset.Customers,
			Transactions: dataset.Transactions,
		})
		if err != nil {
			return fmt.Errorf("export workbook: %w", err)
		}
	}

	fmt.Fprintf(stdout, "wrote %d customers to %s\n", len(dataset.Customers), cfg.Paths.CustomersPath())
	fmt.Fprintf(stdout, "wrote %d transactions to %s\n", len(dataset.Transactions), cfg.Paths.TransactionsPath())
	return nil
}
