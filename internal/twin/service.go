// Package twin composes the census normalizer, persona generator, policy
// summarizer and chat responder behind the persistent result cache.
package twin

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/constituent-twin/internal/census"
	"github.com/sells-group/constituent-twin/internal/chat"
	"github.com/sells-group/constituent-twin/internal/generator"
	"github.com/sells-group/constituent-twin/internal/model"
	"github.com/sells-group/constituent-twin/internal/monitoring"
	"github.com/sells-group/constituent-twin/internal/policy"
	"github.com/sells-group/constituent-twin/internal/store"
)

// DefaultMaxPersonas caps batch size when no limit is configured.
const DefaultMaxPersonas = 50

var (
	// ErrInvalidCount is returned when a persona count is out of range.
	ErrInvalidCount = eris.New("twin: invalid persona count")
	// ErrEmptyPolicy is returned when a policy document has no text.
	ErrEmptyPolicy = eris.New("twin: empty policy text")
)

// ProfileSource resolves region ids to demographic profiles.
type ProfileSource interface {
	Normalize(ctx context.Context, regionID string) *model.DemographicProfile
	Invalidate(regionID string)
}

// PersonaGenerator produces persona batches for a profile.
type PersonaGenerator interface {
	Generate(ctx context.Context, p *model.DemographicProfile, count int) *generator.Result
}

// PolicySummarizer condenses policy text.
type PolicySummarizer interface {
	Summarize(ctx context.Context, text string) *model.PolicySummary
}

// ChatResponder answers persona chat messages.
type ChatResponder interface {
	Reply(ctx context.Context, req chat.Request) (*model.ChatReply, error)
}

// Options configures a Service.
type Options struct {
	// Store is the result cache. Nil disables caching.
	Store       store.Store
	CacheTTL    time.Duration
	MaxPersonas int
	Now         func() time.Time
}

// Service is the application core shared by the CLI and the HTTP API.
type Service struct {
	profiles   ProfileSource
	generator  PersonaGenerator
	summarizer PolicySummarizer
	responder  ChatResponder

	store       store.Store
	ttl         time.Duration
	maxPersonas int
	now         func() time.Time
	log         *zap.Logger

	group singleflight.Group
}

// New creates a Service.
func New(profiles ProfileSource, gen PersonaGenerator, sum PolicySummarizer, resp ChatResponder, opts Options) *Service {
	s := &Service{
		profiles:    profiles,
		generator:   gen,
		summarizer:  sum,
		responder:   resp,
		store:       opts.Store,
		ttl:         opts.CacheTTL,
		maxPersonas: opts.MaxPersonas,
		now:         opts.Now,
		log:         zap.L().With(zap.String("component", "twin")),
	}
	if s.maxPersonas <= 0 {
		s.maxPersonas = DefaultMaxPersonas
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxPersonas returns the largest batch the service will generate.
func (s *Service) MaxPersonas() int { return s.maxPersonas }

// Profile returns the demographic profile for region.
func (s *Service) Profile(ctx context.Context, region string) *model.DemographicProfile {
	return s.profiles.Normalize(ctx, region)
}

// Personas returns count personas for region. A cached batch is returned
// unless refresh is set; a refreshed batch replaces the cached one.
func (s *Service) Personas(ctx context.Context, region string, count int, refresh bool) (*model.PersonaBatch, error) {
	if count < 1 || count > s.maxPersonas {
		return nil, eris.Wrapf(ErrInvalidCount, "count %d not in [1, %d]", count, s.maxPersonas)
	}
	region = census.NormalizeID(region)
	key := strconv.Itoa(count)

	if !refresh {
		var cached model.PersonaBatch
		if s.lookup(ctx, region, store.KindPersonas, key, &cached) {
			cached.Cached = true
			return &cached, nil
		}
	}

	flightKey := region + "|" + key + "|" + strconv.FormatBool(refresh)
	fctx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(flightKey, func() (any, error) {
		profile := s.profiles.Normalize(fctx, region)
		res := s.generator.Generate(fctx, profile, count)
		batch := &model.PersonaBatch{
			RegionID:      region,
			Personas:      res.Personas,
			Source:        res.Source,
			ProfileSource: profile.Source,
			GeneratedAt:   s.now().UTC(),
		}
		// Fallback profiles are retried on the next request.
		if !profile.IsFallback() {
			s.save(fctx, region, store.KindPersonas, key, batch)
		}
		return batch, nil
	})

	// Callers sharing a flight each get their own copy.
	shared := v.(*model.PersonaBatch)
	out := *shared
	out.Personas = append([]model.Persona(nil), shared.Personas...)
	return &out, nil
}

// Summarize condenses a policy document for region, reusing a cached
// summary of identical text.
func (s *Service) Summarize(ctx context.Context, region, text string) (*model.PolicySummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPolicy
	}
	region = census.NormalizeID(region)
	key := policy.ContentHash(text)

	var cached model.PolicySummary
	if s.lookup(ctx, region, store.KindSummary, key, &cached) {
		return &cached, nil
	}

	sum := s.summarizer.Summarize(ctx, text)
	s.save(ctx, region, store.KindSummary, key, sum)
	return sum, nil
}

// Chat forwards a message to the persona responder.
func (s *Service) Chat(ctx context.Context, req chat.Request) (*model.ChatReply, error) {
	return s.responder.Reply(ctx, req)
}

// Invalidate drops every cached result and the cached profile for region.
// It returns the number of store rows removed.
func (s *Service) Invalidate(ctx context.Context, region string) (int, error) {
	region = census.NormalizeID(region)
	s.profiles.Invalidate(region)
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.DeleteCached(ctx, region, "")
	if err != nil {
		return 0, eris.Wrapf(err, "twin: invalidate %s", region)
	}
	s.log.Info("cache invalidated", zap.String("region", region), zap.Int("rows", n))
	return n, nil
}

// lookup decodes a cached entry into dst. Store failures count as misses.
func (s *Service) lookup(ctx context.Context, region, kind, key string, dst any) bool {
	if s.store == nil {
		return false
	}
	entry, err := s.store.GetCached(ctx, region, kind, key)
	if err != nil {
		s.log.Warn("cache read failed",
			zap.String("region", region),
			zap.String("kind", kind),
			zap.Error(err),
		)
		monitoring.ObserveCacheLookup(kind, false)
		return false
	}
	if entry == nil {
		monitoring.ObserveCacheLookup(kind, false)
		return false
	}
	if err := json.Unmarshal(entry.Data, dst); err != nil {
		s.log.Warn("cache entry undecodable",
			zap.String("region", region),
			zap.String("kind", kind),
			zap.Error(err),
		)
		monitoring.ObserveCacheLookup(kind, false)
		return false
	}
	monitoring.ObserveCacheLookup(kind, true)
	return true
}

func (s *Service) save(ctx context.Context, region, kind, key string, v any) {
	if s.store == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	if err := s.store.SetCached(ctx, region, kind, key, data, s.ttl); err != nil {
		s.log.Warn("cache write failed",
			zap.String("region", region),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}
