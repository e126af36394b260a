package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// Shape describes the expected payload shape of a probe's result.
// The aggregator uses it to substitute a typed empty value when a probe
// fails or finds nothing, so every registered probe always appears in the
// profile's sources map.
type Shape int

const (
	// ShapeObject means the probe returns a single object (e.g. carrier info).
	ShapeObject Shape = iota
	// ShapeList means the probe returns a list of records (e.g. breaches,
	// platform existence results).
	ShapeList
)

// Probe is a single external data source lookup.
// Implementations must respect context cancellation; the engine derives a
// per-probe timeout context for every call.
type Probe interface {
	// Name returns the probe's registered name. It becomes the key in the
	// profile's sources map, so it must be unique within a query kind.
	Name() string

	// Kind returns the query kind this probe serves.
	Kind() model.QueryKind

	// Shape returns the expected payload shape.
	Shape() Shape

	// Probe queries the external source for the given query.
	// Returning (nil, nil) or an empty payload means the lookup ran cleanly
	// but found nothing.
	Probe(ctx context.Context, q model.Query) (any, error)
}

// Registry holds the fixed probe set per query kind.
// The set is static, known at construction time: the engine never discovers
// probes dynamically.
type Registry struct {
	probes map[model.QueryKind][]Probe
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[model.QueryKind][]Probe)}
}

// Register adds probes to the registry under their own kinds.
func (r *Registry) Register(probes ...Probe) {
	for _, p := range probes {
		r.probes[p.Kind()] = append(r.probes[p.Kind()], p)
	}
}

// For returns the probes registered for the given kind.
// The returned slice must not be mutated.
func (r *Registry) For(kind model.QueryKind) []Probe {
	return r.probes[kind]
}

// Client is the shared HTTP plumbing for probes. A single process-wide rate
// limiter throttles all outbound calls; this is the one concession to
// provider-side rate limiting (no retries, no backoff).
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// ClientOptions configures a probe Client.
type ClientOptions struct {
	// Timeout bounds each HTTP request. Zero means 15 seconds.
	Timeout time.Duration

	// RateLimit is the global requests-per-second across all probes.
	// Zero or negative disables throttling.
	RateLimit float64

	// Burst is the limiter burst size. Zero means 1.
	Burst int

	// UserAgent is sent with every request.
	UserAgent string

	// HTTPClient overrides the underlying client; used in tests.
	HTTPClient *http.Client
}

// NewClient creates a probe Client with the given options.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		userAgent:  opts.UserAgent,
	}
}

// maxResponseBody caps how much of a response we read. 2MB is generous for
// the JSON APIs the probes consume while preventing memory exhaustion.
const maxResponseBody = 2 * 1024 * 1024

// GetJSON performs a rate-limited GET and decodes a JSON response into v.
// Returns the HTTP status code; for non-2xx responses v is left untouched
// and no error is returned, so callers can treat 404 as a clean "not found".
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return resp.StatusCode, fmt.Errorf("unparseable response from %s: %w", url, err)
	}

	return resp.StatusCode, nil
}

// Head performs a rate-limited HEAD request and returns the status code.
// Used for existence checks where the body is irrelevant.
func (c *Client) Head(ctx context.Context, url string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	return resp.StatusCode, nil
}

// DefaultRegistry builds the standard probe set for all three query kinds.
// apiKeys maps source names ("hibp", "emailrep") to credentials; probes with
// no key fall back to their unauthenticated behavior.
func DefaultRegistry(client *Client, apiKeys map[string]string) *Registry {
	r := NewRegistry()
	r.Register(
		// Email probes.
		NewReputationProbe(client, apiKeys["emailrep"]),
		NewDNSProbe(nil),
		NewGravatarProbe(client),
		NewSocialProfilesProbe(client),
		NewBreachProbe(client, apiKeys["hibp"]),

		// Phone probes.
		NewCarrierProbe(),
		NewLocationProbe(),
		NewPhoneReputationProbe(client),

		// Handle probes.
		NewSocialMediaProbe(client),
		NewCodeRepoProbe(client),
		NewForumProbe(client),
		NewGamingProbe(client),
	)
	return r
}
