package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Nyx-Off/RavenTrace/internal/model"
	"github.com/Nyx-Off/RavenTrace/internal/provider"
)

// Default engine tuning values.
const (
	// DefaultTTL is how long a cached profile is considered fresh.
	DefaultTTL = 24 * time.Hour

	// DefaultConcurrency is the number of probes that may run at once.
	// The pool is shared across all in-flight searches in the process.
	DefaultConcurrency = 5

	// DefaultProbeTimeout bounds each individual probe. Probes enforce their
	// own timeout; there is no engine-level retry.
	DefaultProbeTimeout = 15 * time.Second

	// DefaultPassDeadline bounds a whole search pass. When the deadline
	// fires, in-flight probes are cancelled and downgraded to failures, and
	// the pass still aggregates whatever completed.
	DefaultPassDeadline = 2 * time.Minute
)

// CacheStore is the profile cache consumed by the engine.
// *cache.Store satisfies it; tests substitute fakes.
type CacheStore interface {
	// Get returns the cached profile for (kind, key) if fresher than ttl,
	// or (nil, nil) on a miss.
	Get(ctx context.Context, kind model.QueryKind, key string, ttl time.Duration) (*model.Profile, error)

	// Put upserts the profile for (kind, key).
	Put(ctx context.Context, kind model.QueryKind, key string, profile *model.Profile) error
}

// Engine drives the search lifecycle: validate, cache lookup, concurrent
// probe dispatch, aggregation, scoring, and cache write-back.
//
// The engine receives its probe registry and cache store at construction;
// there is no process-wide mutable state.
type Engine struct {
	registry *provider.Registry
	cache    CacheStore
	logger   *slog.Logger

	ttl          time.Duration
	concurrency  int
	probeTimeout time.Duration
	passDeadline time.Duration
	now          func() time.Time

	// flight deduplicates concurrent passes per query key.
	flight singleflight.Group

	// sem bounds probe concurrency across all in-flight searches.
	sem chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTTL sets the cache freshness window for reads.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithConcurrency sets the shared probe pool size.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.probeTimeout = d
		}
	}
}

// WithPassDeadline sets the per-pass deadline. Zero disables it, restoring
// "probes run to their own completion" behavior.
func WithPassDeadline(d time.Duration) Option {
	return func(e *Engine) { e.passDeadline = d }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine with the given probe registry and cache store.
// A nil cache disables caching: every search runs a fresh pass.
func New(registry *provider.Registry, cache CacheStore, opts ...Option) *Engine {
	e := &Engine{
		registry:     registry,
		cache:        cache,
		ttl:          DefaultTTL,
		concurrency:  DefaultConcurrency,
		probeTimeout: DefaultProbeTimeout,
		passDeadline: DefaultPassDeadline,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	// The semaphore is shared by every search so total probe parallelism in
	// the process stays bounded regardless of how many searches are running.
	e.sem = make(chan struct{}, e.concurrency)

	return e
}

// SearchOptions adjusts a single search call.
type SearchOptions struct {
	// ForceRefresh bypasses the cache hit path and always runs a fresh pass.
	ForceRefresh bool

	// Locale is the ISO region hint, required for phone queries.
	Locale string
}

// Search is the sole entry point for callers.
// Validation failures return a *model.ValidationError and no profile; once
// validation passes, callers always receive a structurally complete profile.
func (e *Engine) Search(ctx context.Context, raw string, kind model.QueryKind, opts SearchOptions) (*model.Profile, error) {
	q, err := model.NewQuery(raw, kind, opts.Locale)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && !opts.ForceRefresh {
		cached, err := e.cache.Get(ctx, q.Kind, q.Normalized, e.ttl)
		if err != nil {
			// A broken cache degrades to a miss; the search must not fail.
			e.logger.Warn("cache read failed, treating as miss",
				"key", q.Key(),
				"error", err,
			)
		}
		if cached != nil {
			e.logger.Debug("cache hit", "key", q.Key())
			cached.FromCache = true
			return cached, nil
		}
	}

	// Concurrent searches for the same key join one in-flight pass.
	result, err, shared := e.flight.Do(q.Key(), func() (any, error) {
		return e.runPass(ctx, q), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("joined in-flight search", "key", q.Key())
	}

	return result.(*model.Profile), nil
}

// runPass executes one complete orchestration pass: dispatch all probes,
// aggregate, score, persist. It always returns a profile.
func (e *Engine) runPass(ctx context.Context, q model.Query) *model.Profile {
	start := e.now()
	probes := e.registry.For(q.Kind)

	e.logger.Info("dispatching probes",
		"key", q.Key(),
		"probes", len(probes),
	)

	passCtx := ctx
	if e.passDeadline > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, e.passDeadline)
		defer cancel()
	}

	// Outcomes arrive in completion order; ordering is irrelevant because
	// they are keyed by provider name during aggregation.
	results := make(chan model.ProviderOutcome, len(probes))

	var g errgroup.Group
	for _, p := range probes {
		g.Go(func() error {
			select {
			case e.sem <- struct{}{}:
				defer func() { <-e.sem }()
			case <-passCtx.Done():
				results <- model.ProviderOutcome{
					Provider: p.Name(),
					Status:   model.StatusFailure,
					Error:    passCtx.Err().Error(),
				}
				return nil
			}
			results <- e.runProbe(passCtx, p, q)
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	outcomes := make([]model.ProviderOutcome, 0, len(probes))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}

	profile := Aggregate(q, probes, outcomes)
	profile.Confidence = Score(profile.Sources)
	profile.Timestamp = start.UTC()
	profile.ElapsedSeconds = e.now().Sub(start).Seconds()

	// The pass is complete: every dispatched probe reached a terminal state.
	// Only now may the profile be persisted.
	if e.cache != nil {
		if err := e.cache.Put(ctx, q.Kind, q.Normalized, profile); err != nil {
			// A failed cache write never fails the search.
			e.logger.Warn("cache write failed",
				"key", q.Key(),
				"error", err,
			)
		}
	}

	e.logger.Info("search pass complete",
		"key", q.Key(),
		"confidence", profile.Confidence,
		"elapsed", e.now().Sub(start).Round(time.Millisecond),
	)

	return profile
}

// runProbe executes one probe in isolation and converts its result into a
// terminal outcome. Errors, timeouts, and panics never escape.
func (e *Engine) runProbe(ctx context.Context, p provider.Probe, q model.Query) model.ProviderOutcome {
	probeCtx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	e.logger.Debug("probe started", "probe", p.Name(), "key", q.Key())

	payload, err := runProtected(probeCtx, p, q)
	if err != nil {
		e.logger.Warn("probe failed",
			"probe", p.Name(),
			"key", q.Key(),
			"error", err,
		)
		return model.ProviderOutcome{
			Provider: p.Name(),
			Status:   model.StatusFailure,
			Error:    err.Error(),
		}
	}

	if isEmptyValue(payload) {
		e.logger.Debug("probe found nothing", "probe", p.Name(), "key", q.Key())
		return model.ProviderOutcome{
			Provider: p.Name(),
			Status:   model.StatusEmpty,
		}
	}

	e.logger.Debug("probe succeeded", "probe", p.Name(), "key", q.Key())
	return model.ProviderOutcome{
		Provider: p.Name(),
		Status:   model.StatusSuccess,
		Payload:  payload,
	}
}

// runProtected calls the probe and converts panics into errors so a
// misbehaving probe cannot take down sibling probes or the search.
func runProtected(ctx context.Context, p provider.Probe, q model.Query) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return p.Probe(ctx, q)
}
