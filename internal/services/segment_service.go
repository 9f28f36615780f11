package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bankcli/internal/analytics"
	"bankcli/internal/config"
	"bankcli/internal/dataprocessing"
	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
	"bankcli/internal/segmentation"
	"bankcli/pkg/contracts/domain"
)

// Dataset is a source of customers and transactions
type Dataset interface {
	Load(ctx context.Context) ([]domain.Customer, []domain.Transaction, error)
}

// FileDataset reads customers.csv and transactions.csv from the data directory
type FileDataset struct {
	paths  config.PathsConfig
	loader *dataprocessing.Loader
}

// NewFileDataset creates a dataset backed by the configured data directory
func NewFileDataset(paths config.PathsConfig, logger *slog.Logger) *FileDataset {
	return &FileDataset{paths: paths, loader: dataprocessing.NewLoader(logger)}
}

// Load reads both tables concurrently
func (d *FileDataset) Load(ctx context.Context) ([]domain.Customer, []domain.Transaction, error) {
	var (
		customers    []domain.Customer
		transactions []domain.Transaction
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = d.loader.LoadCustomers(d.paths.CustomersPath())
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = d.loader.LoadTransactions(d.paths.TransactionsPath())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return customers, transactions, nil
}

// StaticDataset serves records already in memory
type StaticDataset struct {
	Customers    []domain.Customer
	Transactions []domain.Transaction
}

// Load returns the held records
func (d StaticDataset) Load(context.Context) ([]domain.Customer, []domain.Transaction, error) {
	return d.Customers, d.Transactions, nil
}

// SegmentsView is the API view of a segmentation run
type SegmentsView struct {
	K              int                    `json:"k"`
	Inertia        float64                `json:"inertia"`
	Converged      bool                   `json:"converged"`
	Segmented      int                    `json:"segmented"`
	Inactive       int                    `json:"inactive"`
	DroppedOrphans int                    `json:"dropped_orphans"`
	Degenerate     []string               `json:"degenerate,omitempty"`
	Segments       []segmentation.Segment `json:"segments"`
	LoadedAt       time.Time              `json:"loaded_at"`
}

// AssignmentView describes one customer's place in the segmentation
type AssignmentView struct {
	CustomerID int                         `json:"customer_id"`
	Segmented  bool                        `json:"segmented"`
	ClusterID  *int                        `json:"cluster_id,omitempty"`
	Label      string                      `json:"label,omitempty"`
	Features   *segmentation.FeatureVector `json:"features,omitempty"`
}

// snapshot is one immutable load of data, segmentation and analytics
type snapshot struct {
	result   *segmentation.Result
	store    *analytics.Store
	loadedAt time.Time
}

// SegmentService runs the segmentation pipeline and answers queries against
// the latest successful run.
type SegmentService struct {
	dataset   Dataset
	segmenter *segmentation.Segmenter
	logger    *slog.Logger

	mu      sync.RWMutex
	current *snapshot
}

// NewSegmentService creates a service. Call Refresh before serving queries.
func NewSegmentService(dataset Dataset, segmenter *segmentation.Segmenter, logger *slog.Logger) *SegmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentService{
		dataset:   dataset,
		segmenter: segmenter,
		logger:    infrastructure.WithComponent(logger, infrastructure.ComponentService),
	}
}

// Refresh loads the dataset, segments it and rebuilds the analytics store.
// The previous snapshot keeps serving until the new one is complete.
func (s *SegmentService) Refresh(ctx context.Context) error {
	start := time.Now()

	customers, transactions, err := s.dataset.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	result, err := s.segmenter.Run(ctx, customers, transactions)
	if err != nil {
		return fmt.Errorf("segment customers: %w", err)
	}

	store, err := analytics.NewStore(ctx, customers, transactions, s.logger)
	if err != nil {
		return fmt.Errorf("build analytics store: %w", err)
	}

	next := &snapshot{result: result, store: store, loadedAt: time.Now()}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev != nil {
		if err := prev.store.Close(); err != nil {
			s.logger.WarnContext(ctx, "Failed to close previous analytics store", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "Segmentation refreshed",
		slog.Int("customers", len(customers)),
		slog.Int("transactions", len(transactions)),
		slog.Int("segments", len(result.Segments)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Ready reports whether a snapshot is available
func (s *SegmentService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *SegmentService) latest() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, apperrors.NewConfigError("segmentation has not been loaded", nil)
	}
	return s.current, nil
}

// Segments returns every non-empty segment of the current run
func (s *SegmentService) Segments(ctx context.Context) (*SegmentsView, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	r := snap.result
	return &SegmentsView{
		K:              r.Model.K,
		Inertia:        r.Model.Inertia,
		Converged:      r.Model.Converged,
		Segmented:      len(r.Features),
		Inactive:       len(r.Inactive),
		DroppedOrphans: r.DroppedOrphans,
		Degenerate:     r.Scaler.Degenerate(),
		Segments:       r.Segments,
		LoadedAt:       snap.loadedAt,
	}, nil
}

// Segment returns one segment by cluster id
func (s *SegmentService) Segment(ctx context.Context, clusterID int) (*segmentation.Segment, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	seg, ok := snap.result.Segment(clusterID)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("segment %d", clusterID))
	}
	return &seg, nil
}

// Assignment returns the cluster of a customer. Customers without
// transactions are reported as not segmented.
func (s *SegmentService) Assignment(ctx context.Context, customerID int) (*AssignmentView, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	r := snap.result

	if r.IsInactive(customerID) {
		return &AssignmentView{CustomerID: customerID}, nil
	}

	cluster, ok := r.ClusterOf(customerID)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("customer %d", customerID))
	}
	features, _ := r.FeaturesOf(customerID)
	view := &AssignmentView{
		CustomerID: customerID,
		Segmented:  true,
		ClusterID:  &cluster,
		Features:   &features,
	}
	if seg, ok := r.Segment(cluster); ok {
		view.Label = seg.Label
	}
	return view, nil
}

// TopCustomers returns the highest spending customers
func (s *SegmentService) TopCustomers(ctx context.Context, limit int) ([]analytics.CustomerSpend, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	return snap.store.TopCustomersBySpend(ctx, limit)
}

// Cities returns spending per city
func (s *SegmentService) Cities(ctx context.Context) ([]analytics.CitySpend, error) {
	snap, err := s.latest()
	if err != nil {
		return nil, err
	}
	return snap.store.CitySpending(ctx)
}

// Close releases the current analytics store
func (s *SegmentService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.store.Close()
	s.current = nil
	return err
}
