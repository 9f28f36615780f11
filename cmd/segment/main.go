// Command segment clusters customers by spending behaviour and writes the
// segment reports.
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
	"time"

	"bankcli/internal/analytics"
	"bankcli/internal/config"
	"bankcli/internal/dataprocessing"
	"bankcli/internal/exporter"
	"bankcli/internal/infrastructure"
	"bankcli/internal/segmentation"
	"bankcli/pkg/contracts/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("segment failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	workbookIn string
	noWorkbook bool
	topLimit   int
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var opts options
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	fs.IntVar(&cfg.Segmentation.K, "k", cfg.Segmentation.K, "number of clusters")
	fs.IntVar(&cfg.Segmentation.NInit, "n-init", cfg.Segmentation.NInit, "number of k-means restarts")
	fs.IntVar(&cfg.Segmentation.MaxIter, "max-iter", cfg.Segmentation.MaxIter, "iteration cap per restart")
	fs.Int64Var(&cfg.Segmentation.RandomSeed, "seed", cfg.Segmentation.RandomSeed, "random seed")
	fs.IntVar(&cfg.Segmentation.Workers, "workers", cfg.Segmentation.Workers, "concurrent restarts (0 = GOMAXPROCS)")
	fs.StringVar(&cfg.Segmentation.OrphanPolicy, "orphans", cfg.Segmentation.OrphanPolicy, "transactions of unknown customers: reject or drop")
	fs.StringVar(&cfg.Paths.DataDir, "data", cfg.Paths.DataDir, "directory holding customers.csv and transactions.csv")
	fs.StringVar(&cfg.Paths.ReportsDir, "reports", cfg.Paths.ReportsDir, "output directory for reports")
	fs.StringVar(&opts.workbookIn, "in-xlsx", "", "read customers and transactions from this workbook instead of CSV")
	fs.BoolVar(&opts.noWorkbook, "no-xlsx", false, "skip the segmentation.xlsx report")
	fs.IntVar(&opts.topLimit, "top", 10, "rows in the top customers sheet")
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

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	customers, transactions, err := loadDataset(cfg.Paths, opts.workbookIn, logger)
	if err != nil {
		return err
	}

	report := dataprocessing.NewInspector(logger).Inspect(ctx, customers, transactions)
	if !report.Clean() {
		logger.WarnContext(ctx, "Dataset has quality issues",
			slog.Any("invalid_fields", report.InvalidFields),
			slog.Int("duplicate_customers", len(report.DuplicateCustomers)),
			slog.Int("orphan_transactions", report.OrphanTransactions))
	}

	metrics, err := infrastructure.CreateSegmentationMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	segmenter, err := segmentation.NewSegmenter(cfg.Segmentation, logger,
		segmentation.WithTracer(providers.Tracer),
		segmentation.WithMetrics(metrics))
	if err != nil {
		return err
	}

	result, err := segmenter.Run(ctx, customers, transactions)
	if err != nil {
		return err
	}

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	csvWriter := exporter.NewCSVWriter(cfg.Paths, logger)
	if err := exporter.NewSegmentExporter(csvWriter, cfg.Paths, logger).ExportAll(result); err != nil {
		return err
	}

	if !opts.noWorkbook {
		if err := writeWorkbook(ctx, cfg.Paths, opts.topLimit, customers, transactions, result, logger); err != nil {
			return err
		}
	}

	if cfg.Telemetry.EnableMetrics {
		path := cfg.Telemetry.MetricsTextfile
		if path == "" {
			path = cfg.Paths.GetReportPath(config.MetricsFile)
		}
		if err := providers.WriteMetricsTextfile(path); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics textfile", slog.String("error", err.Error()))
		}
	}

	return exporter.WriteInterpretation(stdout, result)
}

func loadDataset(paths config.PathsConfig, workbook string, logger *slog.Logger) ([]domain.Customer, []domain.Transaction, error) {
	loader := dataprocessing.NewLoader(logger)
	if workbook != "" {
		return loader.LoadWorkbook(workbook)
	}

	customers, err := loader.LoadCustomers(paths.CustomersPath())
	if err != nil {
		return nil, nil, err
	}
	transactions, err := loader.LoadTransactions(paths.TransactionsPath())
	if err != nil {
		return nil, nil, err
	}
	return customers, transactions, nil
}

func writeWorkbook(ctx context.Context, paths config.PathsConfig, top int, customers []domain.Customer, transactions []domain.Transaction, result *segmentation.Result, logger *slog.Logger) error {
	store, err := analytics.NewStore(ctx, customers, transactions, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	overview, err := store.Overview(ctx, top)
	if err != nil {
		return fmt.Errorf("analytics overview: %w", err)
	}

	return exporter.NewWorkbookExporter(logger).Export(paths.GetReportPath(config.WorkbookFile), exporter.WorkbookData{
		Result:   result,
		Overview: overview,
	})
}
