package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyx-Off/RavenTrace/internal/cache"
	"github.com/Nyx-Off/RavenTrace/internal/model"
	"github.com/Nyx-Off/RavenTrace/internal/provider"
)

// fakeProbe is a configurable in-memory probe.
type fakeProbe struct {
	name  string
	kind  model.QueryKind
	shape provider.Shape
	fn    func(ctx context.Context, q model.Query) (any, error)
	calls atomic.Int64
}

func (p *fakeProbe) Name() string          { return p.name }
func (p *fakeProbe) Kind() model.QueryKind { return p.kind }
func (p *fakeProbe) Shape() provider.Shape { return p.shape }

func (p *fakeProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	p.calls.Add(1)
	if p.fn == nil {
		return nil, nil
	}
	return p.fn(ctx, q)
}

// emptyProbe returns a probe that runs cleanly and finds nothing.
func emptyProbe(name string, kind model.QueryKind) *fakeProbe {
	return &fakeProbe{name: name, kind: kind, shape: provider.ShapeObject}
}

func registryWith(probes ...provider.Probe) *provider.Registry {
	r := provider.NewRegistry()
	r.Register(probes...)
	return r
}

func openTestCache(t *testing.T) *cache.Store {
	t.Helper()

	store, err := cache.Open(t.TempDir(), cache.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSearchValidationError(t *testing.T) {
	t.Parallel()

	probe := emptyProbe("a", model.KindEmail)
	e := New(registryWith(probe), nil)

	profile, err := e.Search(context.Background(), "not-an-email", model.KindEmail, SearchOptions{})
	require.Error(t, err)
	assert.Nil(t, profile)

	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))

	// Validation failures must short-circuit before any probe runs.
	assert.Equal(t, int64(0), probe.calls.Load())
}

func TestSearchProviderIsolation(t *testing.T) {
	t.Parallel()

	failing := func(name string) *fakeProbe {
		return &fakeProbe{
			name: name, kind: model.KindEmail, shape: provider.ShapeObject,
			fn: func(context.Context, model.Query) (any, error) {
				return nil, errors.New("provider exploded")
			},
		}
	}
	panicking := &fakeProbe{
		name: "p4", kind: model.KindEmail, shape: provider.ShapeObject,
		fn: func(context.Context, model.Query) (any, error) {
			panic("completely unexpected")
		},
	}
	healthy := func(name string) *fakeProbe {
		return &fakeProbe{
			name: name, kind: model.KindEmail, shape: provider.ShapeObject,
			fn: func(context.Context, model.Query) (any, error) {
				return map[string]any{"data": name}, nil
			},
		}
	}

	e := New(registryWith(
		failing("p1"), failing("p2"), panicking, healthy("p4ok"), healthy("p5ok"),
	), nil)

	profile, err := e.Search(context.Background(), "user@example.com", model.KindEmail, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, profile)

	// All five sources present; the healthy ones carry data.
	require.Len(t, profile.Sources, 5)
	assert.Equal(t, "p4ok", profile.Sources["p4ok"].(map[string]any)["data"])
	assert.Equal(t, "p5ok", profile.Sources["p5ok"].(map[string]any)["data"])
	assert.Equal(t, map[string]any{}, profile.Sources["p1"])

	// Provider failures never surface as a top-level error.
	assert.Empty(t, profile.Error)
	assert.Equal(t, 40.0, profile.Confidence)
}

// TestSearchEndToEnd covers the full lifecycle: empty cache, all probes
// empty, then an immediate second call served from cache.
func TestSearchEndToEnd(t *testing.T) {
	t.Parallel()

	probes := make([]provider.Probe, 0, 5)
	for i := range 5 {
		probes = append(probes, emptyProbe(fmt.Sprintf("probe_%d", i), model.KindEmail))
	}

	e := New(registryWith(probes...), openTestCache(t))

	ctx := context.Background()
	first, err := e.Search(ctx, "user@example.com", model.KindEmail, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, first)

	assert.False(t, first.FromCache)
	assert.Equal(t, 0.0, first.Confidence)
	require.Len(t, first.Sources, 5)
	for name, value := range first.Sources {
		assert.Equal(t, map[string]any{}, value, "source %s should be empty", name)
	}

	second, err := e.Search(ctx, "User@Example.COM", model.KindEmail, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Timestamp.Unix(), second.Timestamp.Unix())

	// The cached call must not have re-run any probe.
	for _, p := range probes {
		assert.Equal(t, int64(1), p.(*fakeProbe).calls.Load())
	}
}

func TestSearchForceRefresh(t *testing.T) {
	t.Parallel()

	probe := emptyProbe("a", model.KindEmail)
	e := New(registryWith(probe), openTestCache(t))

	ctx := context.Background()
	_, err := e.Search(ctx, "user@example.com", model.KindEmail, SearchOptions{})
	require.NoError(t, err)

	refreshed, err := e.Search(ctx, "user@example.com", model.KindEmail, SearchOptions{ForceRefresh: true})
	require.NoError(t, err)

	assert.False(t, refreshed.FromCache)
	assert.Equal(t, int64(2), probe.calls.Load())
}

// erroringCache fails every operation, simulating a broken cache backend.
type erroringCache struct {
	gets atomic.Int64
	puts atomic.Int64
}

func (c *erroringCache) Get(context.Context, model.QueryKind, string, time.Duration) (*model.Profile, error) {
	c.gets.Add(1)
	return nil, errors.New("disk on fire")
}

func (c *erroringCache) Put(context.Context, model.QueryKind, string, *model.Profile) error {
	c.puts.Add(1)
	return errors.New("disk on fire")
}

// TestSearchCacheFailureDegrades verifies that cache failures never fail the
// search: reads degrade to a miss and writes are swallowed.
func TestSearchCacheFailureDegrades(t *testing.T) {
	t.Parallel()

	broken := &erroringCache{}
	probe := &fakeProbe{
		name: "a", kind: model.KindEmail, shape: provider.ShapeObject,
		fn: func(context.Context, model.Query) (any, error) {
			return map[string]any{"ok": true}, nil
		},
	}
	e := New(registryWith(probe), broken)

	profile, err := e.Search(context.Background(), "user@example.com", model.KindEmail, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.False(t, profile.FromCache)
	assert.Equal(t, 100.0, profile.Confidence)
	assert.Equal(t, int64(1), broken.gets.Load())
	assert.Equal(t, int64(1), broken.puts.Load())
}

// TestSearchSingleFlight verifies that concurrent searches for the same key
// share one orchestration pass.
func TestSearchSingleFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	probe := &fakeProbe{
		name: "slow", kind: model.KindHandle, shape: provider.ShapeObject,
		fn: func(ctx context.Context, _ model.Query) (any, error) {
			select {
			case <-release:
				return map[string]any{"ok": true}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	e := New(registryWith(probe), openTestCache(t))

	const callers = 4
	var wg sync.WaitGroup
	profiles := make([]*model.Profile, callers)
	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profiles[i], errs[i] = e.Search(context.Background(), "johndoe", model.KindHandle, SearchOptions{})
		}()
	}

	// Give all callers time to reach the single-flight barrier, then let
	// the probe finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), probe.calls.Load(), "concurrent searches should share one pass")
	for i := range callers {
		require.NoError(t, errs[i])
		require.NotNil(t, profiles[i])
		assert.Equal(t, 100.0, profiles[i].Confidence)
	}
}

// TestSearchPassDeadline verifies that a pass deadline cancels stuck probes
// and still aggregates the probes that completed.
func TestSearchPassDeadline(t *testing.T) {
	t.Parallel()

	stuck := &fakeProbe{
		name: "stuck", kind: model.KindHandle, shape: provider.ShapeObject,
		fn: func(ctx context.Context, _ model.Query) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	fast := &fakeProbe{
		name: "fast", kind: model.KindHandle, shape: provider.ShapeObject,
		fn: func(context.Context, model.Query) (any, error) {
			return map[string]any{"ok": true}, nil
		},
	}

	e := New(registryWith(stuck, fast), nil, WithPassDeadline(100*time.Millisecond))

	start := time.Now()
	profile, err := e.Search(context.Background(), "johndoe", model.KindHandle, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Less(t, time.Since(start), 5*time.Second)

	// The stuck probe degraded to an empty entry, the fast one kept its data.
	assert.Equal(t, map[string]any{}, profile.Sources["stuck"])
	assert.Equal(t, true, profile.Sources["fast"].(map[string]any)["ok"])
	assert.Equal(t, 50.0, profile.Confidence)
}

func TestSearchProbeTimeout(t *testing.T) {
	t.Parallel()

	stuck := &fakeProbe{
		name: "stuck", kind: model.KindHandle, shape: provider.ShapeObject,
		fn: func(ctx context.Context, _ model.Query) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	e := New(registryWith(stuck), nil, WithProbeTimeout(50*time.Millisecond))

	profile, err := e.Search(context.Background(), "johndoe", model.KindHandle, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, profile.Confidence)
}

// TestSearchQueuesBeyondPoolSize verifies that more probes than pool slots
// still all complete.
func TestSearchQueuesBeyondPoolSize(t *testing.T) {
	t.Parallel()

	probes := make([]provider.Probe, 0, 8)
	for i := range 8 {
		probes = append(probes, &fakeProbe{
			name: fmt.Sprintf("p%d", i), kind: model.KindHandle, shape: provider.ShapeObject,
			fn: func(context.Context, model.Query) (any, error) {
				return map[string]any{"ok": true}, nil
			},
		})
	}

	e := New(registryWith(probes...), nil, WithConcurrency(2))

	profile, err := e.Search(context.Background(), "johndoe", model.KindHandle, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, profile.Sources, 8)
	assert.Equal(t, 100.0, profile.Confidence)
}
