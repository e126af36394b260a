package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// CarrierProbe resolves carrier metadata for a phone number.
// It works entirely offline against the numbering-plan metadata that ships
// with the phonenumbers library, so it has no timeout or network concerns.
type CarrierProbe struct{}

// NewCarrierProbe creates the carrier metadata probe.
func NewCarrierProbe() *CarrierProbe { return &CarrierProbe{} }

// Name implements Probe.
func (p *CarrierProbe) Name() string { return "carrier_info" }

// Kind implements Probe.
func (p *CarrierProbe) Kind() model.QueryKind { return model.KindPhone }

// Shape implements Probe.
func (p *CarrierProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *CarrierProbe) Probe(_ context.Context, q model.Query) (any, error) {
	// The normalized query is E.164, so no region hint is needed to parse.
	parsed, err := phonenumbers.Parse(q.Normalized, "")
	if err != nil {
		return nil, fmt.Errorf("cannot parse normalized number: %w", err)
	}

	result := map[string]any{
		"country": phonenumbers.GetRegionCodeForNumber(parsed),
		"type":    numberTypeString(phonenumbers.GetNumberType(parsed)),
		"valid":   phonenumbers.IsValidNumber(parsed),
	}

	if carrier, err := phonenumbers.GetCarrierForNumber(parsed, "en"); err == nil && carrier != "" {
		result["carrier"] = carrier
	}
	if region, err := phonenumbers.GetGeocodingForNumber(parsed, "en"); err == nil && region != "" {
		result["region"] = region
	}

	return result, nil
}

// LocationProbe resolves the geographic description for a phone number from
// the library's geocoding metadata.
type LocationProbe struct{}

// NewLocationProbe creates the location probe.
func NewLocationProbe() *LocationProbe { return &LocationProbe{} }

// Name implements Probe.
func (p *LocationProbe) Name() string { return "location" }

// Kind implements Probe.
func (p *LocationProbe) Kind() model.QueryKind { return model.KindPhone }

// Shape implements Probe.
func (p *LocationProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *LocationProbe) Probe(_ context.Context, q model.Query) (any, error) {
	parsed, err := phonenumbers.Parse(q.Normalized, "")
	if err != nil {
		return nil, fmt.Errorf("cannot parse normalized number: %w", err)
	}

	location, err := phonenumbers.GetGeocodingForNumber(parsed, "en")
	if err != nil || location == "" {
		return nil, nil
	}

	return map[string]any{
		"location":     location,
		"country_code": phonenumbers.GetRegionCodeForNumber(parsed),
	}, nil
}

// PhoneReputationProbe checks whether a number appears on a public
// spam-listing site.
type PhoneReputationProbe struct {
	client  *Client
	baseURL string
}

// NewPhoneReputationProbe creates the phone reputation probe.
func NewPhoneReputationProbe(client *Client) *PhoneReputationProbe {
	return &PhoneReputationProbe{client: client, baseURL: "https://www.shouldianswer.com/phone-number"}
}

// Name implements Probe.
func (p *PhoneReputationProbe) Name() string { return "reputation" }

// Kind implements Probe.
func (p *PhoneReputationProbe) Kind() model.QueryKind { return model.KindPhone }

// Shape implements Probe.
func (p *PhoneReputationProbe) Shape() Shape { return ShapeObject }

// Probe implements Probe.
func (p *PhoneReputationProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	digits := strings.TrimPrefix(q.Normalized, "+")

	url := p.baseURL + "/" + digits
	status, err := p.client.Head(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, nil
	}

	return map[string]any{
		"found": true,
		"url":   url,
	}, nil
}

// numberTypeString converts a phonenumbers type constant to a stable string
// for profiles and reports.
func numberTypeString(t phonenumbers.PhoneNumberType) string {
	switch t {
	case phonenumbers.FIXED_LINE:
		return "fixed_line"
	case phonenumbers.MOBILE:
		return "mobile"
	case phonenumbers.FIXED_LINE_OR_MOBILE:
		return "fixed_line_or_mobile"
	case phonenumbers.TOLL_FREE:
		return "toll_free"
	case phonenumbers.PREMIUM_RATE:
		return "premium_rate"
	case phonenumbers.SHARED_COST:
		return "shared_cost"
	case phonenumbers.VOIP:
		return "voip"
	case phonenumbers.PERSONAL_NUMBER:
		return "personal_number"
	case phonenumbers.PAGER:
		return "pager"
	case phonenumbers.UAN:
		return "uan"
	case phonenumbers.VOICEMAIL:
		return "voicemail"
	default:
		return "unknown"
	}
}
