package census

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/constituent-twin/internal/model"
	"github.com/sells-group/constituent-twin/internal/monitoring"
)

type cacheEntry struct {
	profile *model.DemographicProfile
	expires time.Time
}

// Normalizer resolves region ids to demographic profiles. It caches real
// Census profiles per region and shares one in-flight fetch between
// concurrent callers for the same region.
type Normalizer struct {
	src           Source
	districts     DistrictZIPs
	minIncome     int
	ttl           time.Duration
	maxConcurrent int
	seed          uint64
	now           func() time.Time
	log           *zap.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDistrictZIPs enables building district profiles from their ZIPs.
func WithDistrictZIPs(d DistrictZIPs) Option {
	return func(n *Normalizer) { n.districts = d }
}

// WithMinMedianIncome sets the median income floor.
func WithMinMedianIncome(v int) Option {
	return func(n *Normalizer) { n.minIncome = v }
}

// WithTTL sets how long real profiles stay cached. Zero disables caching.
func WithTTL(d time.Duration) Option {
	return func(n *Normalizer) { n.ttl = d }
}

// WithMaxConcurrentZIPs bounds the ZIP fan-out of district aggregation.
func WithMaxConcurrentZIPs(limit int) Option {
	return func(n *Normalizer) { n.maxConcurrent = limit }
}

// WithSeed fixes the seed behind randomized ZIP fallback profiles.
func WithSeed(seed uint64) Option {
	return func(n *Normalizer) { n.seed = seed }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a Normalizer reading from src.
func NewNormalizer(src Source, opts ...Option) *Normalizer {
	n := &Normalizer{
		src:           src,
		minIncome:     DefaultMinMedianIncome,
		ttl:           time.Hour,
		maxConcurrent: 8,
		seed:          uint64(time.Now().UnixNano()),
		now:           time.Now,
		log:           zap.L().With(zap.String("component", "census.normalizer")),
		cache:         make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns a profile for regionID. It never fails: any resolution
// or upstream problem yields a fallback profile tagged with its source and
// reason. The returned profile is owned by the caller.
func (n *Normalizer) Normalize(ctx context.Context, regionID string) *model.DemographicProfile {
	key := NormalizeID(regionID)

	if p := n.cached(key); p != nil {
		return p
	}

	// The flight outlives any single caller; followers must not inherit
	// the leader's cancellation.
	fctx := context.WithoutCancel(ctx)
	v, _, _ := n.group.Do(key, func() (any, error) {
		if p := n.cached(key); p != nil {
			return p, nil
		}
		p := n.resolve(fctx, key)
		monitoring.ObserveProfile(string(p.Source))
		if !p.IsFallback() && n.ttl > 0 {
			n.mu.Lock()
			n.cache[key] = cacheEntry{profile: p, expires: n.now().Add(n.ttl)}
			n.mu.Unlock()
		}
		return p, nil
	})
	return v.(*model.DemographicProfile).Clone()
}

// Invalidate drops the cached profile for regionID.
func (n *Normalizer) Invalidate(regionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.cache, NormalizeID(regionID))
}

// InvalidateAll empties the profile cache.
func (n *Normalizer) InvalidateAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.cache)
}

func (n *Normalizer) cached(key string) *model.DemographicProfile {
	n.mu.RLock()
	e, ok := n.cache[key]
	n.mu.RUnlock()
	if !ok || !n.now().Before(e.expires) {
		return nil
	}
	return e.profile.Clone()
}

func (n *Normalizer) resolve(ctx context.Context, key string) *model.DemographicProfile {
	region, err := ParseRegion(key)
	if err != nil {
		n.log.Warn("census: unresolvable region, using district fallback", zap.String("region", key), zap.Error(err))
		return FallbackDistrict(key, err.Error(), n.now())
	}

	if region.Kind == RegionZIP {
		return n.resolveZIP(ctx, region)
	}
	return n.resolveDistrict(ctx, region)
}

func (n *Normalizer) resolveZIP(ctx context.Context, region Region) *model.DemographicProfile {
	counts, err := n.src.FetchZIP(ctx, region.ZIP)
	if err == nil {
		var p *model.DemographicProfile
		if p, err = Derive(region.ID, counts, n.minIncome, model.SourceCensus, n.now()); err == nil {
			return p
		}
	}
	n.log.Warn("census: zip fetch failed, using zip fallback", zap.String("region", region.ID), zap.Error(err))
	return FallbackZIP(region.ID, n.seed, err.Error(), n.now())
}

func (n *Normalizer) resolveDistrict(ctx context.Context, region Region) *model.DemographicProfile {
	fips := StateFIPS(region.State)
	if fips == UnknownFIPS {
		reason := "unknown state " + region.State
		n.log.Warn("census: unresolvable district, using district fallback", zap.String("region", region.ID), zap.String("reason", reason))
		return FallbackDistrict(region.ID, reason, n.now())
	}

	counts, err := n.src.FetchDistrict(ctx, fips, region.District)
	if err == nil {
		var p *model.DemographicProfile
		if p, err = Derive(region.ID, counts, n.minIncome, model.SourceCensus, n.now()); err == nil {
			return p
		}
	}
	log := n.log.With(zap.String("region", region.ID))
	log.Warn("census: district fetch failed", zap.Error(err))

	if zips := n.districts[region.ID]; len(zips) > 0 {
		merged, used, aggErr := aggregateZIPs(ctx, n.src, zips, n.maxConcurrent, log)
		if aggErr == nil {
			p, derr := Derive(region.ID, merged, n.minIncome, model.SourceCensusAggregate, n.now())
			if derr == nil {
				p.ZIPCodes = used
				log.Info("census: built district from zip aggregate", zap.Int("zips", len(used)))
				return p
			}
			aggErr = derr
		}
		log.Warn("census: zip aggregation failed", zap.Error(aggErr))
	}

	return FallbackDistrict(region.ID, err.Error(), n.now())
}
