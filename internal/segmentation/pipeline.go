package segmentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"bankcli/internal/config"
	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
	"bankcli/pkg/contracts/domain"
)

// Stage names used in logs, spans and metrics
const (
	StageAggregate   = "aggregate"
	StageStandardize = "standardize"
	StageCluster     = "cluster"
	StageReport      = "report"
)

// Result is the immutable outcome of one segmentation run.
// Features, Standardized and Model.Assignments share the same order.
type Result struct {
	Features       []FeatureVector  `json:"features"`
	Inactive       []int            `json:"inactive"`
	DroppedOrphans int              `json:"dropped_orphans"`
	Scaler         Scaler           `json:"scaler"`
	Standardized   [][]float64      `json:"-"`
	Model          *Model           `json:"model"`
	Summaries      []ClusterSummary `json:"summaries"`
	Segments       []Segment        `json:"segments"`

	byCustomer map[int]int
}

// Assignments pairs every active customer with its cluster, ordered by customer_id
func (r *Result) Assignments() []Assignment {
	out := make([]Assignment, len(r.Features))
	for i, f := range r.Features {
		out[i] = Assignment{CustomerID: f.CustomerID, ClusterID: r.Model.Assignments[i]}
	}
	return out
}

// ClusterOf returns the cluster of a segmented customer
func (r *Result) ClusterOf(customerID int) (int, bool) {
	i, ok := r.byCustomer[customerID]
	if !ok {
		return 0, false
	}
	return r.Model.Assignments[i], true
}

// FeaturesOf returns the raw feature vector of a segmented customer
func (r *Result) FeaturesOf(customerID int) (FeatureVector, bool) {
	i, ok := r.byCustomer[customerID]
	if !ok {
		return FeatureVector{}, false
	}
	return r.Features[i], true
}

// Segment returns the interpreted segment with the given cluster id
func (r *Result) Segment(clusterID int) (Segment, bool) {
	for _, s := range r.Segments {
		if s.ClusterID == clusterID {
			return s, true
		}
	}
	return Segment{}, false
}

// Classify scales a new feature vector with the fitted population statistics
// and returns its nearest cluster.
func (r *Result) Classify(v FeatureVector) int {
	return r.Model.Predict(r.Scaler.TransformOne(v))
}

// IsInactive reports whether the customer was excluded for having no transactions
func (r *Result) IsInactive(customerID int) bool {
	for _, id := range r.Inactive {
		if id == customerID {
			return true
		}
		if id > customerID {
			break
		}
	}
	return false
}

// SegmenterOption configures a Segmenter
type SegmenterOption func(*Segmenter)

// WithTracer wraps every stage in a span from tracer
func WithTracer(tracer trace.Tracer) SegmenterOption {
	return func(s *Segmenter) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics records stage timings and clustering outcomes on m
func WithMetrics(m *infrastructure.SegmentationMetrics) SegmenterOption {
	return func(s *Segmenter) {
		s.metrics = m
	}
}

// Segmenter runs aggregate, standardize, cluster and report in order
type Segmenter struct {
	aggregator *Aggregator
	engine     *Engine
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *infrastructure.SegmentationMetrics
}

// NewSegmenter builds the pipeline from the segmentation configuration
func NewSegmenter(cfg config.SegmentationConfig, logger *slog.Logger, opts ...SegmenterOption) (*Segmenter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := ParseOrphanPolicy(cfg.OrphanPolicy)
	if err != nil {
		return nil, err
	}

	logger = infrastructure.WithComponent(logger, infrastructure.ComponentSegmentation)
	s := &Segmenter{
		aggregator: NewAggregator(policy, logger),
		logger:     logger,
		tracer:     tracenoop.NewTracerProvider().Tracer("segmentation"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = NewEngine(EngineConfig{
		K:       cfg.K,
		NInit:   cfg.NInit,
		MaxIter: cfg.MaxIter,
		Seed:    cfg.RandomSeed,
		Workers: cfg.Workers,
	}, logger).WithMetrics(s.metrics)

	return s, nil
}

// Run segments the customers. Any failure aborts the run; no partial result is returned.
func (s *Segmenter) Run(ctx context.Context, customers []domain.Customer, transactions []domain.Transaction) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "segmentation.run",
		trace.WithAttributes(
			attribute.Int("customers", len(customers)),
			attribute.Int("transactions", len(transactions)),
			attribute.Int("k", s.engine.Config().K),
		))
	defer span.End()
	// a recording span already supplies the trace id
	ctx = infrastructure.EnsureTraceID(ctx)

	start := time.Now()
	s.logger.InfoContext(ctx, "segmentation started",
		slog.Int("customers", len(customers)),
		slog.Int("transactions", len(transactions)))

	var agg *Aggregation
	err := s.stage(ctx, StageAggregate, func(ctx context.Context) error {
		var err error
		agg, err = s.aggregator.Aggregate(ctx, customers, transactions)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(agg.Inactive) > 0 {
		s.logger.InfoContext(ctx, "customers without transactions excluded from segmentation",
			slog.Int("inactive", len(agg.Inactive)))
	}
	s.metrics.RecordPopulation(ctx, len(agg.Features), len(agg.Inactive))

	// with no active customers at all this is still a k > N configuration fault
	if err := s.engine.CheckK(len(agg.Features)); err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "not enough active customers for k",
			slog.Int("active", len(agg.Features)),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := &Result{
		Features:       agg.Features,
		Inactive:       agg.Inactive,
		DroppedOrphans: agg.DroppedOrphans,
	}

	err = s.stage(ctx, StageStandardize, func(ctx context.Context) error {
		scaler, err := FitScaler(result.Features)
		if err != nil {
			return err
		}
		for _, dim := range scaler.Degenerate() {
			s.logger.WarnContext(ctx, "feature has zero variance, standardized to 0",
				slog.String("dimension", dim),
				slog.String("error", apperrors.NewNumericDegeneracyError(dim).Error()))
			s.metrics.RecordDegenerate(ctx, dim)
		}
		result.Scaler = scaler
		result.Standardized = scaler.Transform(result.Features)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, StageCluster, func(ctx context.Context) error {
		model, err := s.engine.Fit(ctx, result.Standardized)
		if err != nil {
			return err
		}
		result.Model = model
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, StageReport, func(ctx context.Context) error {
		summaries, err := Summarize(result.Features, result.Model.Assignments, result.Model.K)
		if err != nil {
			return err
		}
		result.Summaries = summaries
		result.Segments = Interpret(summaries, result.Scaler)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.byCustomer = make(map[int]int, len(result.Features))
	for i, f := range result.Features {
		result.byCustomer[f.CustomerID] = i
	}

	span.SetAttributes(
		attribute.Float64("inertia", result.Model.Inertia),
		attribute.Int("segments", len(result.Segments)),
	)
	s.logger.InfoContext(ctx, "segmentation completed",
		slog.Int("segmented", len(result.Features)),
		slog.Int("inactive", len(result.Inactive)),
		slog.Int("segments", len(result.Segments)),
		slog.Float64("inertia", result.Model.Inertia),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// stage runs fn inside its own span, timing it and logging failures
func (s *Segmenter) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "segmentation."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)
	s.metrics.RecordStage(ctx, name, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "segmentation stage failed",
			infrastructure.StageAttr(name),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.DebugContext(ctx, "segmentation stage finished",
		infrastructure.StageAttr(name),
		slog.Duration("duration", duration))
	return nil
}
