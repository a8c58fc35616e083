// Package engine runs queries over batches of documents on a bounded
// worker pool.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krew-solutions/ascetic-docquery-go/docquery/config"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/filter/domain/model"
	"github.com/krew-solutions/ascetic-docquery-go/docquery/query"
)

var ErrEvaluationPanic = errors.New("filter evaluation panicked")

const releaseTimeout = 3 * time.Second

// Executor shares one interned filter tree between all workers of a run.
type Executor struct {
	cfg     config.EngineConfig
	logger  *slog.Logger
	pool    *ants.Pool
	cache   *query.Cache
	metrics *metrics
}

func NewExecutor(cfg config.EngineConfig, logger *slog.Logger, reg prometheus.Registerer) (*Executor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 || cfg.ParallelThreshold < 1 || cfg.CacheSize < 1 {
		return nil, errors.Wrapf(config.ErrInvalidConfig, "engine config %+v", cfg)
	}
	m, err := newMetrics(reg)
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(v any) {
		logger.Error("engine worker panic", "panic", v)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create worker pool")
	}
	return &Executor{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		cache:   query.NewCache(cfg.CacheSize),
		metrics: m,
	}, nil
}

// Run returns the documents matching q, in input order. Invalid queries
// are rejected before any document is evaluated.
func (e *Executor) Run(ctx context.Context, q *query.Query, docs []*model.Document) ([]*model.Document, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := e.intern(q)
	if err != nil {
		e.logger.Warn("query rejected", "query", q.CanonicalID(), "error", err)
		return nil, err
	}

	var matched []bool
	if len(docs) < e.cfg.ParallelThreshold {
		matched, err = e.evaluateInline(ctx, q, docs)
	} else {
		matched, err = e.evaluateParallel(ctx, q, docs)
	}
	if err != nil {
		return nil, err
	}

	result := make([]*model.Document, 0, len(docs))
	for i, ok := range matched {
		if ok {
			result = append(result, docs[i])
		}
	}

	elapsed := time.Since(start)
	e.metrics.evaluated.Add(float64(len(docs)))
	e.metrics.matched.Add(float64(len(result)))
	e.metrics.duration.Observe(elapsed.Seconds())
	e.logger.Debug("query run",
		"query", q.CanonicalID(),
		"documents", len(docs),
		"matched", len(result),
		"duration", elapsed,
	)
	return result, nil
}

func (e *Executor) Close() error {
	return e.pool.ReleaseTimeout(releaseTimeout)
}

// intern returns the cached equal query, validating only queries not
// seen before.
func (e *Executor) intern(q *query.Query) (*query.Query, error) {
	if cached, ok := e.cache.Get(q.CanonicalID()); ok && cached.Equal(q) {
		e.metrics.cacheHits.Inc()
		return cached, nil
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return e.cache.Intern(q), nil
}

func (e *Executor) evaluateInline(ctx context.Context, q *query.Query, docs []*model.Document) ([]bool, error) {
	matched := make([]bool, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matched[i] = q.Matches(doc)
	}
	return matched, nil
}

// evaluateParallel splits docs into one contiguous chunk per worker.
// Each chunk writes only its own slots of matched.
func (e *Executor) evaluateParallel(ctx context.Context, q *query.Query, docs []*model.Document) ([]bool, error) {
	matched := make([]bool, len(docs))
	chunk := (len(docs) + e.cfg.Workers - 1) / e.cfg.Workers

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	for lo := 0; lo < len(docs); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(docs))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(errors.Wrap(ErrEvaluationPanic, fmt.Sprint(r)))
				}
			}()
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return
				}
				matched[i] = q.Matches(docs[i])
			}
		}
		if err := e.pool.Submit(task); err != nil {
			wg.Done()
			fail(errors.Wrap(err, "cannot submit evaluation task"))
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return matched, nil
}
