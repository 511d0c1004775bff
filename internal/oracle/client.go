package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Latitudes outside this band are classified as water without a query:
// polar regions have neither population nor imagery coverage.
const (
	minPlayableLat = -60
	maxPlayableLat = 70
)

// Client talks to the Google Maps web service APIs.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	Types             []string           `json:"types"`
	AddressComponents []addressComponent `json:"address_components"`
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type elevationResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

type streetViewMetadata struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	PanoID       string `json:"pano_id"`
	Location     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

var waterTypes = []string{"water", "ocean", "sea", "lake", "river", "bay", "gulf", "harbor", "marina"}

var landTypes = []string{
	"country", "administrative_area_level_1", "administrative_area_level_2",
	"administrative_area_level_3", "locality", "sublocality",
	"sublocality_level_1", "neighborhood", "political",
	"establishment", "point_of_interest",
	"street_address", "premise", "route", "postal_code",
}

// placeNameToken matches a capitalized word, the weakest signal that a
// formatted address names an actual place rather than just an area code.
var placeNameToken = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// IsLand classifies a coordinate as land by reverse geocoding it.
// Ambiguous results default to water: a false negative costs one extra
// sample, a false positive produces an unplayable phase.
func (c *Client) IsLand(ctx context.Context, lat, lng float64) (bool, error) {
	if lat < minPlayableLat || lat > maxPlayableLat {
		return false, nil
	}

	var resp geocodeResponse
	err := c.get(ctx, "/geocode/json", url.Values{"latlng": {latlng(lat, lng)}}, &resp)
	if err != nil {
		c.logger.Warn("geocode call failed, treating as water", "lat", lat, "lng", lng, "error", err)
		return false, nil
	}

	switch resp.Status {
	case "ZERO_RESULTS":
		return false, nil
	case "OVER_QUERY_LIMIT":
		return false, fmt.Errorf("%w: %s", ErrQuotaExceeded, resp.ErrorMessage)
	case "REQUEST_DENIED":
		return false, fmt.Errorf("%w: %s", ErrRequestDenied, resp.ErrorMessage)
	case "OK":
	default:
		// INVALID_REQUEST and anything unrecognized.
		return false, nil
	}

	if len(resp.Results) == 0 {
		return false, nil
	}
	first := resp.Results[0]

	if hasAnyType(first.Types, waterTypes) {
		return false, nil
	}
	if hasAnyType(first.Types, landTypes) {
		return true, nil
	}

	// A bare plus_code marks an unaddressed area that may still be land.
	// Accept it only when the formatted address names a place.
	if len(first.Types) == 1 && first.Types[0] == "plus_code" {
		return placeNameToken.MatchString(first.FormattedAddress), nil
	}

	return false, nil
}

// HasStreetLevelImagery reports whether street-level imagery is available
// near the coordinate. Only an explicit OK counts as available.
func (c *Client) HasStreetLevelImagery(ctx context.Context, lat, lng float64) (bool, error) {
	meta, err := c.streetViewMetadata(ctx, lat, lng)
	if err != nil {
		if IsFatal(err) {
			return false, err
		}
		c.logger.Warn("street view metadata call failed", "lat", lat, "lng", lng, "error", err)
		return false, nil
	}
	return meta.Status == "OK", nil
}

// NearestPano returns the nearest panorama to the coordinate, or nil when
// no imagery is available there.
func (c *Client) NearestPano(ctx context.Context, lat, lng float64) (*PanoInfo, error) {
	meta, err := c.streetViewMetadata(ctx, lat, lng)
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return nil, nil
	}
	if meta.Status != "OK" {
		return nil, nil
	}
	return &PanoInfo{
		PanoID: meta.PanoID,
		Lat:    meta.Location.Lat,
		Lng:    meta.Location.Lng,
	}, nil
}

func (c *Client) streetViewMetadata(ctx context.Context, lat, lng float64) (*streetViewMetadata, error) {
	var resp streetViewMetadata
	err := c.get(ctx, "/streetview/metadata", url.Values{"location": {latlng(lat, lng)}}, &resp)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, resp.ErrorMessage)
	case "REQUEST_DENIED":
		return nil, fmt.Errorf("%w: %s", ErrRequestDenied, resp.ErrorMessage)
	}
	return &resp, nil
}

// Describe fetches the address, region, locality, place types, and elevation
// for a coordinate. The elevation lookup is best effort: its failure only
// omits the field. Returns nil when the base reverse geocode fails.
func (c *Client) Describe(ctx context.Context, lat, lng float64) (*LocationInfo, error) {
	var resp geocodeResponse
	if err := c.get(ctx, "/geocode/json", url.Values{"latlng": {latlng(lat, lng)}}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, fmt.Errorf("reverse geocode returned %s", resp.Status)
	}

	first := resp.Results[0]
	info := &LocationInfo{
		FormattedAddress: first.FormattedAddress,
		PlaceTypes:       first.Types,
	}
	for _, comp := range first.AddressComponents {
		switch {
		case containsStr(comp.Types, "country"):
			info.Country = comp.LongName
		case containsStr(comp.Types, "administrative_area_level_1"):
			info.AdministrativeArea = comp.LongName
		case containsStr(comp.Types, "locality"), containsStr(comp.Types, "administrative_area_level_2"):
			info.Locality = comp.LongName
		case containsStr(comp.Types, "sublocality"), containsStr(comp.Types, "administrative_area_level_3"):
			info.SubLocality = comp.LongName
		}
	}

	var elev elevationResponse
	err := c.get(ctx, "/elevation/json", url.Values{"locations": {latlng(lat, lng)}}, &elev)
	if err == nil && elev.Status == "OK" && len(elev.Results) > 0 {
		e := elev.Results[0].Elevation
		info.Elevation = &e
	} else if err != nil {
		c.logger.Warn("elevation lookup failed", "lat", lat, "lng", lng, "error", err)
	}

	return info, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func latlng(lat, lng float64) string {
	return fmt.Sprintf("%.8f,%.8f", lat, lng)
}

func hasAnyType(types, candidates []string) bool {
	for _, t := range types {
		lt := strings.ToLower(t)
		for _, cand := range candidates {
			if lt == cand || strings.Contains(lt, cand) {
				return true
			}
		}
	}
	return false
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
