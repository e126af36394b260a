package model

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
	"golang.org/x/text/language"
)

// QueryKind identifies which provider set and result schema apply to a query.
type QueryKind string

const (
	// KindEmail is an email address query.
	KindEmail QueryKind = "email"
	// KindPhone is a phone number query. Requires a locale hint.
	KindPhone QueryKind = "phone"
	// KindHandle is a username/handle query.
	KindHandle QueryKind = "handle"
)

// String returns the string representation of the QueryKind.
func (k QueryKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the three supported query kinds.
func (k QueryKind) Valid() bool {
	switch k {
	case KindEmail, KindPhone, KindHandle:
		return true
	default:
		return false
	}
}

// ParseKind converts a user-supplied kind string to a QueryKind.
// It accepts common aliases ("username" for handle, "tel" for phone).
func ParseKind(s string) (QueryKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email", "mail":
		return KindEmail, nil
	case "phone", "tel", "number":
		return KindPhone, nil
	case "handle", "username", "user":
		return KindHandle, nil
	default:
		return "", fmt.Errorf("unknown query kind %q (expected email, phone, or handle)", s)
	}
}

// ValidationError describes a query that failed syntactic validation.
// It carries the offending raw value and a human-readable reason.
// Validation is the only gate before any network I/O is attempted, so this
// error is always reported synchronously to the caller.
type ValidationError struct {
	// Raw is the original input that failed validation.
	Raw string

	// Kind is the query kind the input was validated against.
	Kind QueryKind

	// Reason explains why validation failed.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s query %q: %s", e.Kind, e.Raw, e.Reason)
}

// Handle constraints. The character class matches the original policy:
// alphanumeric plus dot, underscore, and hyphen.
const (
	handleMinLen = 2
	handleMaxLen = 50
)

var handlePattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

// Query is an immutable, validated search input.
// Construct it with NewQuery; a Query that exists is always valid.
//
// Normalization is idempotent: constructing a new Query from the Normalized
// field of an existing one yields the same normalized value.
type Query struct {
	// Kind determines the provider set and result schema.
	Kind QueryKind `json:"kind"`

	// Raw is the input exactly as the caller supplied it.
	Raw string `json:"raw"`

	// Normalized is the canonical form used for cache keys and probes.
	// Email and handle queries are lower-cased and trimmed; phone queries
	// are formatted as E.164 (+<countrycode><nationalnumber>).
	Normalized string `json:"normalized"`

	// Locale is the ISO 3166-1 region hint ("FR", "US", ...).
	// Required for phone queries, optional otherwise.
	Locale string `json:"locale,omitempty"`
}

// NewQuery validates and normalizes a raw query string for the given kind.
// No network I/O is performed: email validation is purely syntactic
// (deliverability is a provider concern, not a validation concern).
func NewQuery(raw string, kind QueryKind, locale string) (Query, error) {
	if !kind.Valid() {
		return Query{}, &ValidationError{Raw: raw, Kind: kind, Reason: "unsupported query kind"}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Query{}, &ValidationError{Raw: raw, Kind: kind, Reason: "empty query"}
	}

	locale, err := normalizeLocale(locale)
	if err != nil {
		return Query{}, &ValidationError{Raw: raw, Kind: kind, Reason: err.Error()}
	}

	var normalized string
	switch kind {
	case KindEmail:
		normalized, err = normalizeEmail(trimmed)
	case KindPhone:
		normalized, err = normalizePhone(trimmed, locale)
	case KindHandle:
		normalized, err = normalizeHandle(trimmed)
	}
	if err != nil {
		return Query{}, &ValidationError{Raw: raw, Kind: kind, Reason: err.Error()}
	}

	return Query{
		Kind:       kind,
		Raw:        raw,
		Normalized: normalized,
		Locale:     locale,
	}, nil
}

// Key returns the cache/dedup key for this query: kind plus normalized value.
// Two queries with the same Key are the same logical search.
func (q Query) Key() string {
	return string(q.Kind) + ":" + q.Normalized
}

// normalizeLocale validates an optional ISO region hint ("FR", "us").
// Returns the canonical upper-case region code, or empty if no hint given.
func normalizeLocale(locale string) (string, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return "", nil
	}
	region, err := language.ParseRegion(locale)
	if err != nil {
		return "", fmt.Errorf("invalid locale hint %q", locale)
	}
	return region.String(), nil
}

// normalizeEmail lower-cases, trims, and syntactically validates an email
// address. The domain must carry a dotted top-level label; internationalized
// domains are converted to their ASCII (punycode) form so normalization
// produces a single canonical spelling.
func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("not a valid email address")
	}
	// mail.ParseAddress accepts display names ("Bob <b@x.com>"); only a bare
	// address is acceptable as a query.
	if addr.Address != s {
		return "", fmt.Errorf("not a bare email address")
	}

	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" || domain == "" {
		return "", fmt.Errorf("missing local part or domain")
	}

	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("invalid domain %q", domain)
	}

	labels := strings.Split(asciiDomain, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("domain %q has no top-level label", domain)
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return "", fmt.Errorf("domain %q has no valid top-level label", domain)
	}

	return local + "@" + asciiDomain, nil
}

// normalizePhone parses a phone number against the numbering plan of the
// locale region and formats it as E.164. A locale hint is required unless
// the number already carries an international prefix.
func normalizePhone(s, locale string) (string, error) {
	// Strip common separators before parsing, matching the original input
	// tolerance (spaces, dashes, dots, parentheses).
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, s)

	if locale == "" && !strings.HasPrefix(cleaned, "+") {
		return "", fmt.Errorf("phone queries require a locale hint (e.g. --locale FR)")
	}

	parsed, err := phonenumbers.Parse(cleaned, locale)
	if err != nil {
		return "", fmt.Errorf("cannot parse phone number: %v", err)
	}
	// IsValidNumber checks the full numbering plan for the region, not just
	// that the length is plausible.
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("not a valid number for region %s", locale)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// normalizeHandle lower-cases and trims a handle and enforces the length and
// character-class policy.
func normalizeHandle(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if len(s) < handleMinLen {
		return "", fmt.Errorf("handle shorter than %d characters", handleMinLen)
	}
	if len(s) > handleMaxLen {
		return "", fmt.Errorf("handle longer than %d characters", handleMaxLen)
	}
	if !handlePattern.MatchString(s) {
		return "", fmt.Errorf("handle contains characters outside [a-z0-9._-]")
	}

	return s, nil
}
