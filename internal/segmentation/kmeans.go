package segmentation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	apperrors "bankcli/internal/errors"
	"bankcli/internal/infrastructure"
)

// Engine defaults
const (
	DefaultK          = 4
	DefaultNInit      = 10
	DefaultMaxIter    = 300
	DefaultRandomSeed = 42
)

// EngineConfig configures the k-means engine
type EngineConfig struct {
	K       int   // number of clusters
	NInit   int   // independent restarts
	MaxIter int   // Lloyd iteration cap per restart
	Seed    int64 // master seed; restart r uses the stream (Seed, r)
	Workers int   // concurrent restarts, <= 0 means GOMAXPROCS
}

// DefaultEngineConfig returns k=4, n_init=10, max_iter=300, seed=42
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		K:       DefaultK,
		NInit:   DefaultNInit,
		MaxIter: DefaultMaxIter,
		Seed:    DefaultRandomSeed,
	}
}

// RestartSummary records how one restart ended
type RestartSummary struct {
	Restart    int     `json:"restart"`
	Inertia    float64 `json:"inertia"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
}

// Model is a fitted clustering. Centroids are frozen once Fit returns.
type Model struct {
	K           int              `json:"k"`
	Centroids   [][]float64      `json:"centroids"`
	Assignments []int            `json:"assignments"`
	Inertia     float64          `json:"inertia"`
	Iterations  int              `json:"iterations"`
	Converged   bool             `json:"converged"`
	BestRestart int              `json:"best_restart"`
	Restarts    []RestartSummary `json:"restarts"`
}

// Predict returns the nearest centroid for a standardized point, ties going
// to the lowest cluster index.
func (m *Model) Predict(point []float64) int {
	return nearest(point, m.Centroids)
}

// Sizes returns the member count of each cluster id
func (m *Model) Sizes() []int {
	sizes := make([]int, m.K)
	for _, c := range m.Assignments {
		sizes[c]++
	}
	return sizes
}

// Engine partitions standardized points with Lloyd's algorithm and k-means++
// seeding, keeping the best of several restarts.
type Engine struct {
	cfg     EngineConfig
	logger  *slog.Logger
	metrics *infrastructure.SegmentationMetrics
}

// NewEngine creates a k-means engine
func NewEngine(cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
	}
}

// WithMetrics records per-restart inertia and iteration counts on m
func (e *Engine) WithMetrics(m *infrastructure.SegmentationMetrics) *Engine {
	e.metrics = m
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// restartResult is what one restart task hands back to the reduction
type restartResult struct {
	centroids   [][]float64
	assignments []int
	inertia     float64
	iterations  int
	converged   bool
}

// Fit clusters points into exactly K clusters. Restarts are independent tasks;
// the result is identical for any worker count.
func (e *Engine) Fit(ctx context.Context, points [][]float64) (*Model, error) {
	if err := e.validate(points); err != nil {
		return nil, err
	}

	start := time.Now()
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	e.logger.InfoContext(ctx, "starting k-means",
		slog.Int("k", e.cfg.K),
		slog.Int("n_init", e.cfg.NInit),
		slog.Int("max_iter", e.cfg.MaxIter),
		slog.Int64("seed", e.cfg.Seed),
		slog.Int("points", len(points)),
		slog.Int("workers", workers))

	results := make([]restartResult, e.cfg.NInit)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for r := 0; r < e.cfg.NInit; r++ {
		g.Go(func() error {
			res, err := e.runRestart(gctx, points, r)
			if err != nil {
				return fmt.Errorf("restart %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	summaries := make([]RestartSummary, len(results))
	for r, res := range results {
		summaries[r] = RestartSummary{
			Restart:    r,
			Inertia:    res.inertia,
			Iterations: res.iterations,
			Converged:  res.converged,
		}
		e.metrics.RecordRestart(ctx, res.inertia, res.iterations, res.converged)
		e.logger.DebugContext(ctx, "k-means restart finished",
			slog.Int("restart", r),
			slog.Float64("inertia", res.inertia),
			slog.Int("iterations", res.iterations),
			slog.Bool("converged", res.converged))

		// strict comparison keeps the lowest restart index on ties
		if res.inertia < results[best].inertia {
			best = r
		}
	}

	chosen := results[best]
	model := &Model{
		K:           e.cfg.K,
		Centroids:   chosen.centroids,
		Assignments: chosen.assignments,
		Inertia:     chosen.inertia,
		Iterations:  chosen.iterations,
		Converged:   chosen.converged,
		BestRestart: best,
		Restarts:    summaries,
	}

	e.logger.InfoContext(ctx, "k-means completed",
		slog.Int("best_restart", best),
		slog.Float64("inertia", model.Inertia),
		slog.Int("iterations", model.Iterations),
		slog.Bool("converged", model.Converged),
		slog.Any("sizes", model.Sizes()),
		slog.Duration("duration", time.Since(start)))

	return model, nil
}

// CheckK reports a ConfigError unless 1 <= K <= n
func (e *Engine) CheckK(n int) error {
	switch {
	case e.cfg.K < 1:
		return apperrors.NewConfigError(fmt.Sprintf("k must be at least 1, got %d", e.cfg.K), nil).
			WithContext("k", e.cfg.K)
	case e.cfg.K > n:
		return apperrors.NewConfigError(fmt.Sprintf("k=%d exceeds the number of points %d", e.cfg.K, n), nil).
			WithContext("k", e.cfg.K).
			WithContext("points", n)
	}
	return nil
}

// validate rejects configurations that cannot produce exactly K clusters
func (e *Engine) validate(points [][]float64) error {
	if err := e.CheckK(len(points)); err != nil {
		return err
	}
	switch {
	case e.cfg.NInit < 1:
		return apperrors.NewConfigError(fmt.Sprintf("n_init must be at least 1, got %d", e.cfg.NInit), nil)
	case e.cfg.MaxIter < 1:
		return apperrors.NewConfigError(fmt.Sprintf("max_iter must be at least 1, got %d", e.cfg.MaxIter), nil)
	}

	dims := len(points[0])
	if dims == 0 {
		return apperrors.NewConfigError("points have no dimensions", nil)
	}
	for i, p := range points {
		if len(p) != dims {
			return apperrors.NewConfigError(fmt.Sprintf("point %d has dimension %d, expected %d", i, len(p), dims), nil)
		}
		for _, x := range p {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return apperrors.NewInputError(fmt.Sprintf("point %d has a non-finite coordinate", i), nil)
			}
		}
	}
	return nil
}

// runRestart runs one seeded Lloyd loop. It only reads points and owns
// everything it allocates.
func (e *Engine) runRestart(ctx context.Context, points [][]float64, restart int) (restartResult, error) {
	rng := rand.New(rand.NewPCG(uint64(e.cfg.Seed), uint64(restart)))
	centroids := seedPlusPlus(points, e.cfg.K, rng)

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	converged := false
	iterations := 0
	for iterations < e.cfg.MaxIter {
		if err := ctx.Err(); err != nil {
			return restartResult{}, err
		}
		iterations++
		if !assign(points, centroids, labels) {
			converged = true
			break
		}
		updateCentroids(points, labels, centroids)
	}

	// Hitting the cap leaves centroids one update ahead of the labels
	if !converged {
		assign(points, centroids, labels)
	}

	return restartResult{
		centroids:   centroids,
		assignments: labels,
		inertia:     inertia(points, centroids, labels),
		iterations:  iterations,
		converged:   converged,
	}, nil
}

// seedPlusPlus picks k initial centroids: the first uniformly at random, each
// next one with probability proportional to its squared distance from the
// nearest centroid already chosen.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clonePoint(points[rng.IntN(n)]))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = squaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(closest)

		next := 0
		if total == 0 {
			// every point already coincides with a centroid
			next = rng.IntN(n)
		} else {
			target := rng.Float64() * total
			cumulative := 0.0
			next = n - 1
			for i, d := range closest {
				cumulative += d
				if cumulative > target {
					next = i
					break
				}
			}
		}

		c := clonePoint(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := squaredDistance(p, c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

// assign relabels every point with its nearest centroid and reports whether
// any label changed.
func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		c := nearest(p, centroids)
		if labels[i] != c {
			labels[i] = c
			changed = true
		}
	}
	return changed
}

// nearest returns the index of the closest centroid, lowest index on ties
func nearest(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := floats.Distance(p, centroids[0], 2)
	for j := 1; j < len(centroids); j++ {
		if d := floats.Distance(p, centroids[j], 2); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// updateCentroids moves each centroid to the mean of its members.
// A centroid with no members keeps its previous position.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dims := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for j := range sums {
		sums[j] = make([]float64, dims)
	}

	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	for j := range centroids {
		if counts[j] == 0 {
			continue
		}
		floats.ScaleTo(centroids[j], 1/float64(counts[j]), sums[j])
	}
}

// inertia sums squared distances from each point to its assigned centroid
func inertia(points, centroids [][]float64, labels []int) float64 {
	total := 0.0
	for i, p := range points {
		total += squaredDistance(p, centroids[labels[i]])
	}
	return total
}

func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clonePoint(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}
