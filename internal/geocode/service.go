package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/pkg/geo"
	"github.com/mwantia/trainmap/pkg/log"
)

const DefaultURL = "https://nominatim.openstreetmap.org/search"

var ErrQueryTooShort = errors.New("query must have at least 3 characters")

// Service looks addresses up on a Nominatim instance.
type Service struct {
	url          string
	countryCodes string
	userAgent    string
	client       *http.Client
	limiter      *rate.Limiter
	log          log.LoggerService
}

func NewService(logger log.LoggerService, cfg config.LocationGeocoderConfig) *Service {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "trainmap/1.0"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Service{
		url:          endpoint,
		countryCodes: cfg.CountryCodes,
		userAgent:    userAgent,
		client:       &http.Client{Timeout: config.ParseDurationOr(cfg.Timeout, 5*time.Second)},
		limiter:      rate.NewLimiter(limit, 1),
		log:          logger,
	}
}

func (s *Service) SearchAddress(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 3 {
		return nil, ErrQueryTooShort
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "5")
	if s.countryCodes != "" {
		params.Add("countrycodes", s.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", s.url, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("Nominatim request failed: %v", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.Error("Nominatim upstream error: %d", resp.StatusCode)
		return nil, fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	var raw []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.log.Error("Failed to decode nominatim payload: %v", err)
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		if suggestion, ok := buildSuggestion(r); ok {
			suggestions = append(suggestions, suggestion)
		}
	}
	return suggestions, nil
}

// Resolve returns the best match for query.
func (s *Service) Resolve(ctx context.Context, query string) (Suggestion, error) {
	suggestions, err := s.SearchAddress(ctx, query)
	if err != nil {
		return Suggestion{}, err
	}
	if len(suggestions) == 0 {
		return Suggestion{}, fmt.Errorf("no address found for '%s'", query)
	}
	return suggestions[0], nil
}

func buildSuggestion(raw nominatimResponse) (Suggestion, bool) {
	lat, errLat := strconv.ParseFloat(raw.Lat, 64)
	lng, errLng := strconv.ParseFloat(raw.Lon, 64)
	if errLat != nil || errLng != nil || !geo.IsValidLatLng(lat, lng) {
		return Suggestion{}, false
	}

	s := Suggestion{
		Street:      raw.Address.Road,
		HouseNumber: raw.Address.HouseNumber,
		ZipCode:     raw.Address.Postcode,
		City:        pickCity(raw.Address),
		Lat:         lat,
		Lng:         lng,
	}
	s.Label = buildLabel(s)
	if s.Label == "" {
		s.Label = raw.DisplayName
	}
	return s, true
}

func pickCity(address nominatimAddress) string {
	for _, candidate := range []string{address.City, address.Town, address.Village, address.Municipality, address.Hamlet} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func buildLabel(s Suggestion) string {
	if s.Street == "" || s.City == "" {
		return ""
	}
	street := s.Street
	if s.HouseNumber != "" {
		street += " " + s.HouseNumber
	}
	city := s.City
	if s.ZipCode != "" {
		city = s.ZipCode + " " + city
	}
	return street + ", " + city
}
