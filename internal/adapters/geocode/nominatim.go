package geocode

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Nominatim client defaults.
const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "streetpass-engine/1.0"
	DefaultLanguage  = "ja"

	requestTimeout = 10 * time.Second
	retryCount     = 2
)

var (
	wardPattern         = regexp.MustCompile(`(.+?区)`)
	municipalityPattern = regexp.MustCompile(`(.+?[市区町村])`)
)

// reverseResponse is the subset of the Nominatim reverse payload we read.
type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Nominatim looks up place names through a Nominatim reverse endpoint.
type Nominatim struct {
	http     *resty.Client
	language string
}

// NewNominatim creates a client for baseURL. Nominatim's usage policy
// requires an identifying User-Agent.
func NewNominatim(baseURL, userAgent, language string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if language == "" {
		language = DefaultLanguage
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Nominatim{http: client, language: language}
}

// Lookup returns the place name for a coordinate. It fails with
// ErrLookupFailed on transport or upstream errors and ErrNoPlace when the
// response carries no usable name.
func (n *Nominatim) Lookup(ctx context.Context, lat, lng float64) (string, error) {
	var out reverseResponse
	resp, err := n.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":          "json",
			"lat":             strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":             strconv.FormatFloat(lng, 'f', -1, 64),
			"accept-language": n.language,
		}).
		SetResult(&out).
		Get("/reverse")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: HTTP %d", ErrLookupFailed, resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrLookupFailed, out.Error)
	}

	if place := PlaceName(out.Address, out.DisplayName); place != "" {
		return place, nil
	}
	return "", ErrNoPlace
}

// PlaceName picks the most specific municipal name: ward, city, town,
// village, a "…区" prefix of the free-form address, then the first
// municipality prefix of the display name.
func PlaceName(address map[string]string, displayName string) string {
	for _, field := range []string{"ward", "city", "town", "village"} {
		if v := address[field]; v != "" {
			return v
		}
	}
	if m := wardPattern.FindStringSubmatch(address["address"]); m != nil {
		return m[1]
	}
	if m := municipalityPattern.FindStringSubmatch(displayName); m != nil {
		return m[1]
	}
	return ""
}
