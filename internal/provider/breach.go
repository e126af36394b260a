package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// BreachProbe checks breach databases for an email address.
// Have I Been Pwned is queried when an API key is configured (the v3 API
// requires one); the LeakCheck public endpoint is always queried.
type BreachProbe struct {
	client       *Client
	hibpKey      string
	hibpBase     string
	leakCheckURL string
}

// NewBreachProbe creates the breach database probe.
func NewBreachProbe(client *Client, hibpKey string) *BreachProbe {
	return &BreachProbe{
		client:       client,
		hibpKey:      hibpKey,
		hibpBase:     "https://haveibeenpwned.com/api/v3",
		leakCheckURL: "https://leakcheck.io/api/public",
	}
}

// Name implements Probe.
func (p *BreachProbe) Name() string { return "breaches" }

// Kind implements Probe.
func (p *BreachProbe) Kind() model.QueryKind { return model.KindEmail }

// Shape implements Probe.
func (p *BreachProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
// Both sources are best-effort: a 404 means "no breach found" and yields an
// empty payload, which is a clean result, not a failure.
func (p *BreachProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	var breaches []any

	hibp, err := p.checkHIBP(ctx, q.Normalized)
	if err != nil {
		return nil, err
	}
	breaches = append(breaches, hibp...)

	leaks, err := p.checkLeakCheck(ctx, q.Normalized)
	if err != nil {
		return nil, err
	}
	breaches = append(breaches, leaks...)

	if len(breaches) == 0 {
		return nil, nil
	}
	return breaches, nil
}

// checkHIBP queries the Have I Been Pwned breachedaccount endpoint.
func (p *BreachProbe) checkHIBP(ctx context.Context, email string) ([]any, error) {
	if p.hibpKey == "" {
		return nil, nil
	}

	var data []struct {
		Name        string   `json:"Name"`        //nolint:tagliatelle // HIBP API field
		Title       string   `json:"Title"`       //nolint:tagliatelle // HIBP API field
		BreachDate  string   `json:"BreachDate"`  //nolint:tagliatelle // HIBP API field
		PwnCount    int64    `json:"PwnCount"`    //nolint:tagliatelle // HIBP API field
		DataClasses []string `json:"DataClasses"` //nolint:tagliatelle // HIBP API field
	}

	endpoint := p.hibpBase + "/breachedaccount/" + url.PathEscape(email) + "?truncateResponse=false"
	status, err := p.client.GetJSON(ctx, endpoint, map[string]string{"hibp-api-key": p.hibpKey}, &data)
	if err != nil {
		return nil, err
	}
	// 404 is HIBP's way of saying the account is clean.
	if status != http.StatusOK {
		return nil, nil
	}

	results := make([]any, 0, len(data))
	for _, b := range data {
		results = append(results, map[string]any{
			"source":            "haveibeenpwned",
			"breach_name":       b.Name,
			"title":             b.Title,
			"date":              b.BreachDate,
			"compromised_count": b.PwnCount,
			"data_types":        b.DataClasses,
		})
	}
	return results, nil
}

// checkLeakCheck queries the LeakCheck public API.
func (p *BreachProbe) checkLeakCheck(ctx context.Context, email string) ([]any, error) {
	var data struct {
		Success bool `json:"success"`
		Found   int  `json:"found"`
		Sources []struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"sources"`
	}

	endpoint := p.leakCheckURL + "?check=" + url.QueryEscape(email)
	status, err := p.client.GetJSON(ctx, endpoint, nil, &data)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !data.Success || data.Found == 0 {
		return nil, nil
	}

	results := make([]any, 0, len(data.Sources))
	for _, s := range data.Sources {
		results = append(results, map[string]any{
			"source":      "leakcheck",
			"breach_name": s.Name,
			"date":        s.Date,
		})
	}
	return results, nil
}
