// Package geocode resolves coordinates into the address fields the portal
// expects, using AMap reverse geocoding.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/ykvlv/checkin-bot/internal/domain"
	"github.com/ykvlv/checkin-bot/internal/logger"
)

const regeoPath = "/v3/geocode/regeo"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an AMap reverse geocoder with a per-coordinate cache.
type Client struct {
	http    HTTPClient
	baseURL string
	apiKey  string
	cache   *ttlcache.Cache[string, domain.Place]
}

// New returns a client. A non-positive ttl disables caching.
func New(httpClient HTTPClient, baseURL, apiKey string, ttl time.Duration) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	if ttl > 0 {
		c.cache = ttlcache.New[string, domain.Place](
			ttlcache.WithTTL[string, domain.Place](ttl),
			ttlcache.WithDisableTouchOnHit[string, domain.Place](),
		)
	}
	return c
}

// Start runs the cache's expiry loop until Stop is called.
func (c *Client) Start() {
	if c.cache != nil {
		c.cache.Start()
	}
}

func (c *Client) Stop() {
	if c.cache != nil {
		c.cache.Stop()
	}
}

type regeoResponse struct {
	Status    string `json:"status" validate:"required"`
	Info      string `json:"info"`
	Regeocode *struct {
		FormattedAddress string `json:"formatted_address"`
		AddressComponent *struct {
			Province string `json:"province" validate:"required"`
			// City is a string, or [] for municipalities.
			City     json.RawMessage `json:"city"`
			District string          `json:"district"`
		} `json:"addressComponent" validate:"required"`
	} `json:"regeocode"`
}

// Lookup resolves loc into a Place.
func (c *Client) Lookup(ctx context.Context, loc domain.Location) (domain.Place, error) {
	key := loc.String()
	if c.cache != nil {
		if item := c.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}

	p, err := c.fetch(ctx, loc)
	if err != nil {
		return domain.Place{}, err
	}
	if c.cache != nil {
		c.cache.Set(key, p, ttlcache.DefaultTTL)
	}
	return p, nil
}

func (c *Client) fetch(ctx context.Context, loc domain.Location) (domain.Place, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("location", loc.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+regeoPath+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Place{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("regeo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Place{}, fmt.Errorf("read regeo response: %w", err)
	}

	var res regeoResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.Place{}, domain.MalformedUpstream("geocoder response is not JSON", nil, err)
	}
	if res.Status != "1" {
		return domain.Place{}, domain.MalformedUpstream("geocoder error: "+res.Info, nil, nil)
	}
	if res.Regeocode == nil {
		return domain.Place{}, domain.MalformedUpstream("geocoder response has no regeocode", nil, nil)
	}
	if vs := domain.Validate(res); len(vs) > 0 {
		return domain.Place{}, domain.MalformedUpstream("geocoder response has unexpected shape", vs, nil)
	}

	ac := res.Regeocode.AddressComponent
	city, ok := plainString(ac.City)
	if !ok || city == "" {
		logger.FromContext(ctx).Debug("geocoder returned no city, using province",
			zap.String("province", ac.Province),
			zap.ByteString("city", ac.City),
		)
		city = ac.Province
	}

	return domain.Place{
		Province: ac.Province,
		City:     city,
		Area:     strings.TrimSpace(city + " " + ac.District),
		Address:  res.Regeocode.FormattedAddress,
		Location: loc,
	}, nil
}

func plainString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
