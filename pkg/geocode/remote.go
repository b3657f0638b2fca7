package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// remoteQuantum quantizes cache keys to ~1 km so nearby grid samples share
// one remote lookup. Required for determinism: the parallel grid phase must
// see identical answers for identical (quantized) coordinates.
const remoteQuantum = 0.01

// RemoteGeocoder calls an external reverse-geocoding HTTP API. Lookups are
// rate limited and memoized by quantized coordinate. Use Warm to materialize
// the cache before a parallel phase.
type RemoteGeocoder struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	mu    sync.RWMutex
	cache map[remoteKey]*Info
}

type remoteKey struct {
	lat, lon int32
}

// NewRemoteGeocoder creates a RemoteGeocoder with the given requests-per-
// second budget.
func NewRemoteGeocoder(baseURL string, rps float64) *RemoteGeocoder {
	if rps <= 0 {
		rps = 1
	}
	return &RemoteGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cache:   make(map[remoteKey]*Info),
	}
}

// Name implements Geocoder.
func (g *RemoteGeocoder) Name() string { return "remote" }

// Reverse implements Geocoder.
func (g *RemoteGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Info, error) {
	key := quantize(lat, lon)

	g.mu.RLock()
	cached, ok := g.cache[key]
	g.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	url := fmt.Sprintf("%s/reverse?lat=%.5f&lon=%.5f", g.baseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: remote request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("geocode: remote returned %d", resp.StatusCode)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, eris.Wrap(err, "geocode: decode response")
	}
	if info.Region == "" {
		info.Region = RegionFor(lat)
	}

	g.mu.Lock()
	g.cache[key] = &info
	g.mu.Unlock()

	return &info, nil
}

// Warm resolves every coordinate up front so a subsequent parallel phase
// runs entirely from cache. Failures are logged and skipped; callers using a
// cascade fall back to the bounding-box backend for the missing points.
func (g *RemoteGeocoder) Warm(ctx context.Context, coords [][2]float64) int {
	warmed := 0
	for _, c := range coords {
		if ctx.Err() != nil {
			break
		}
		if _, err := g.Reverse(ctx, c[0], c[1]); err != nil {
			zap.L().Debug("geocode: warm lookup failed",
				zap.Float64("lat", c[0]),
				zap.Float64("lon", c[1]),
				zap.Error(err),
			)
			continue
		}
		warmed++
	}
	return warmed
}

func quantize(lat, lon float64) remoteKey {
	return remoteKey{
		lat: int32(math.Round(lat / remoteQuantum)),
		lon: int32(math.Round(lon / remoteQuantum)),
	}
}

// Cascade tries geocoders in order and returns the first success. The final
// backend should be the infallible BoundingBoxGeocoder.
type Cascade struct {
	backends []Geocoder
}

// NewCascade builds a cascade over the given backends.
func NewCascade(backends ...Geocoder) *Cascade {
	return &Cascade{backends: backends}
}

// Name implements Geocoder.
func (c *Cascade) Name() string { return "cascade" }

// Reverse implements Geocoder.
func (c *Cascade) Reverse(ctx context.Context, lat, lon float64) (*Info, error) {
	var lastErr error
	for _, b := range c.backends {
		info, err := b.Reverse(ctx, lat, lon)
		if err != nil {
			zap.L().Debug("geocode: backend failed, trying next",
				zap.String("backend", b.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		return info, nil
	}
	if lastErr == nil {
		lastErr = eris.New("geocode: no backends configured")
	}
	return nil, eris.Wrap(lastErr, "geocode: all backends failed")
}
