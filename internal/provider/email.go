package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// ReputationProbe queries the emailrep.io reputation API.
// The free tier works without a key; a key raises the rate limit.
type ReputationProbe struct {
	client  *Client
	apiKey  string
	baseURL string
}

// NewReputationProbe creates the email reputation probe.
func NewReputationProbe(client *Client, apiKey string) *ReputationProbe {
	return &ReputationProbe{
		client:  client,
		apiKey:  apiKey,
		baseURL: "https://emailrep.io",
	}
}

// Name implements Probe.
func (p *ReputationProbe) Name() string { return "email_reputation" }

// Kind implements Probe.
func (p *ReputationProbe) Kind() model.QueryKind { return model.KindEmail }

// Shape implements Probe.
func (p *ReputationProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *ReputationProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Key"] = p.apiKey
	}

	var data struct {
		Reputation string `json:"reputation"`
		Suspicious bool   `json:"suspicious"`
		References int    `json:"references"`
		Details    struct {
			Blacklisted       bool   `json:"blacklisted"`
			MaliciousActivity bool   `json:"malicious_activity"`
			CredentialsLeaked bool   `json:"credentials_leaked"`
			Spam              bool   `json:"spam"`
			DomainExists      bool   `json:"domain_exists"`
			DomainReputation  string `json:"domain_reputation"`
			DataBreach        bool   `json:"data_breach"`
		} `json:"details"`
		Profiles []string `json:"profiles"`
	}

	status, err := p.client.GetJSON(ctx, p.baseURL+"/"+q.Normalized, headers, &data)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}

	return map[string]any{
		"reputation":         data.Reputation,
		"suspicious":         data.Suspicious,
		"references":         data.References,
		"blacklisted":        data.Details.Blacklisted,
		"malicious_activity": data.Details.MaliciousActivity,
		"credentials_leaked": data.Details.CredentialsLeaked,
		"spam":               data.Details.Spam,
		"domain_exists":      data.Details.DomainExists,
		"domain_reputation":  data.Details.DomainReputation,
		"data_breach":        data.Details.DataBreach,
		"profiles":           data.Profiles,
	}, nil
}

// Resolver is the subset of net.Resolver the DNS probe needs.
// Abstracted for tests.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSProbe looks up MX and TXT records for the email's domain.
// This is reconnaissance, not deliverability validation: a missing MX record
// is a finding, not an input error.
type DNSProbe struct {
	resolver Resolver
}

// NewDNSProbe creates the DNS records probe. A nil resolver uses the default
// system resolver.
func NewDNSProbe(resolver Resolver) *DNSProbe {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSProbe{resolver: resolver}
}

// Name implements Probe.
func (p *DNSProbe) Name() string { return "dns_records" }

// Kind implements Probe.
func (p *DNSProbe) Kind() model.QueryKind { return model.KindEmail }

// Shape implements Probe.
func (p *DNSProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *DNSProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	domain := q.Normalized[strings.LastIndex(q.Normalized, "@")+1:]

	result := map[string]any{}

	mxRecords, err := p.resolver.LookupMX(ctx, domain)
	if err == nil && len(mxRecords) > 0 {
		hosts := make([]string, 0, len(mxRecords))
		for _, mx := range mxRecords {
			hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
		}
		result["mx"] = hosts
	}

	txtRecords, err := p.resolver.LookupTXT(ctx, domain)
	if err == nil && len(txtRecords) > 0 {
		var spf string
		for _, txt := range txtRecords {
			if strings.HasPrefix(txt, "v=spf1") {
				spf = txt
				break
			}
		}
		result["txt_count"] = len(txtRecords)
		if spf != "" {
			result["spf"] = spf
		}
	}

	if len(result) == 0 {
		return nil, nil
	}
	result["domain"] = domain
	return result, nil
}

// GravatarProbe checks whether the email has a Gravatar avatar.
// Gravatar addresses avatars by the hex SHA-256 of the lower-cased email;
// requesting with d=404 makes a missing avatar answer 404 instead of serving
// a default image.
type GravatarProbe struct {
	client  *Client
	baseURL string
}

// NewGravatarProbe creates the Gravatar existence probe.
func NewGravatarProbe(client *Client) *GravatarProbe {
	return &GravatarProbe{client: client, baseURL: "https://www.gravatar.com"}
}

// Name implements Probe.
func (p *GravatarProbe) Name() string { return "gravatar" }

// Kind implements Probe.
func (p *GravatarProbe) Kind() model.QueryKind { return model.KindEmail }

// Shape implements Probe.
func (p *GravatarProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *GravatarProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	sum := sha256.Sum256([]byte(q.Normalized))
	hash := hex.EncodeToString(sum[:])

	url := fmt.Sprintf("%s/avatar/%s?d=404", p.baseURL, hash)
	status, err := p.client.Head(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}

	return map[string]any{
		"found":       true,
		"avatar_url":  url,
		"profile_url": fmt.Sprintf("%s/%s", p.baseURL, hash),
	}, nil
}

// SocialProfilesProbe checks whether the email's local part exists as a
// handle on a few major platforms. This catches the common pattern of people
// reusing their mailbox name as a username.
type SocialProfilesProbe struct {
	client    *Client
	platforms []platform
}

// NewSocialProfilesProbe creates the social profile probe for emails.
func NewSocialProfilesProbe(client *Client) *SocialProfilesProbe {
	return &SocialProfilesProbe{
		client: client,
		platforms: []platform{
			{"github", "https://github.com/%s"},
			{"twitter", "https://twitter.com/%s"},
			{"instagram", "https://www.instagram.com/%s"},
			{"reddit", "https://www.reddit.com/user/%s"},
		},
	}
}

// Name implements Probe.
func (p *SocialProfilesProbe) Name() string { return "social_profiles" }

// Kind implements Probe.
func (p *SocialProfilesProbe) Kind() model.QueryKind { return model.KindEmail }

// Shape implements Probe.
func (p *SocialProfilesProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
func (p *SocialProfilesProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	local := q.Normalized[:strings.LastIndex(q.Normalized, "@")]
	// Local parts with tags or dots rarely map to handles verbatim.
	local = strings.SplitN(local, "+", 2)[0]

	return checkPlatforms(ctx, p.client, p.platforms, local)
}

// platform is one entry in an existence-check table.
type platform struct {
	name string
	url  string // format string taking the handle
}

// checkPlatforms probes each platform URL and collects the hits.
// Misses and individual request errors are simply omitted: a probe that
// finds nothing anywhere returns an empty payload, which the engine records
// as a clean empty success rather than a failure.
func checkPlatforms(ctx context.Context, client *Client, platforms []platform, handle string) (any, error) {
	var results []any
	for _, pf := range platforms {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		url := fmt.Sprintf(pf.url, handle)
		status, err := client.Head(ctx, url)
		if err != nil || status != http.StatusOK {
			continue
		}
		results = append(results, map[string]any{
			"platform": pf.name,
			"username": handle,
			"url":      url,
			"found":    true,
		})
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}
