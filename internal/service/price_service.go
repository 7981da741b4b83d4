package service

import (
	"context"
	"log/slog"
	"time"

	"marketsim/internal/cache"
	"marketsim/internal/domain"
	"marketsim/internal/infra"
	"marketsim/internal/provider"
	"marketsim/internal/ratelimit"

	"github.com/shopspring/decimal"
)

// Default cache tuning, overridable through Options
const (
	DefaultCacheTTL            = 24 * time.Hour
	DefaultMaxCacheSize        = 1000
	DefaultCompanyCacheTTL     = 24 * time.Hour
	DefaultMaxCompanyCacheSize = 500
	DefaultMinRequestInterval  = 2 * time.Second
)

// PriceStore is the persistence surface the resolver needs. Satisfied by
// storage.Storage; kept narrow so tests can substitute an in-memory fake.
type PriceStore interface {
	UpsertPrice(rec *domain.PriceRecord) error
	GetPrice(symbol string) (*domain.PriceRecord, error)
	AllPrices() ([]domain.PriceRecord, error)
	SaveAll(recs []domain.PriceRecord) error
}

// Options configures a PriceService
type Options struct {
	Providers []provider.Provider      // cascade order, primary first
	Profile   provider.ProfileProvider // company name/logo source, may be nil
	Store     PriceStore               // persistent mirror, may be nil
	Governor  *ratelimit.Governor      // defaults to a 2s-interval governor
	Metrics   *infra.Metrics           // defaults to a fresh metrics set

	CacheTTL            time.Duration
	MaxCacheSize        int
	CompanyCacheTTL     time.Duration
	MaxCompanyCacheSize int
}

// PriceService answers "what is the current price of symbol S" under
// rate-limited, unreliable and sometimes-paid upstream providers.
//
// Resolution order: fresh cache -> global throttle gate -> provider cascade
// (writing successes back to cache and store) -> stale cache -> store ->
// unavailable. All dependencies are injected; there is no package state.
type PriceService struct {
	providers []provider.Provider
	profile   provider.ProfileProvider
	store     PriceStore
	governor  *ratelimit.Governor
	metrics   *infra.Metrics

	prices *cache.TTLCache[decimal.Decimal]
	names  *cache.TTLCache[string]

	now func() time.Time
}

// NewPriceService creates a PriceService, filling unset options with defaults
func NewPriceService(opts Options) *PriceService {
	if opts.Governor == nil {
		opts.Governor = ratelimit.NewGovernor(DefaultMinRequestInterval)
	}
	if opts.Metrics == nil {
		opts.Metrics = infra.NewMetrics()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = DefaultMaxCacheSize
	}
	if opts.CompanyCacheTTL <= 0 {
		opts.CompanyCacheTTL = DefaultCompanyCacheTTL
	}
	if opts.MaxCompanyCacheSize <= 0 {
		opts.MaxCompanyCacheSize = DefaultMaxCompanyCacheSize
	}

	return &PriceService{
		providers: opts.Providers,
		profile:   opts.Profile,
		store:     opts.Store,
		governor:  opts.Governor,
		metrics:   opts.Metrics,
		prices:    cache.New[decimal.Decimal](opts.CacheTTL, opts.MaxCacheSize),
		names:     cache.New[string](opts.CompanyCacheTTL, opts.MaxCompanyCacheSize),
		now:       time.Now,
	}
}

// SetNowFunc overrides the clock in the service and both caches. Test hook only.
func (s *PriceService) SetNowFunc(now func() time.Time) {
	s.now = now
	s.prices.SetNowFunc(now)
	s.names.SetNowFunc(now)
	s.governor.SetNowFunc(now)
}

// Metrics exposes the resolution counters
func (s *PriceService) Metrics() *infra.Metrics {
	return s.metrics
}

// ResolvePrice returns the best available price for a symbol.
//
// A fresh cache entry answers immediately without I/O. When the global
// throttle gate is closed the call degrades straight to stale cache or
// store. Otherwise providers are tried in order; the first success is
// written back to the cache and (best effort) the store. When every
// provider fails the stale cache, then the store, are consulted before
// reporting domain.ErrPriceUnavailable. Provider-level errors never
// escape to the caller.
func (s *PriceService) ResolvePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return decimal.Zero, domain.ErrPriceUnavailable
	}

	if price, ok := s.prices.Get(sym); ok {
		s.metrics.RecordCacheHit()
		return price, nil
	}
	s.metrics.RecordCacheMiss()

	if !s.governor.MinIntervalElapsed() {
		slog.Debug("throttled, skipping providers", slog.String("symbol", sym))
		return s.degrade(sym)
	}

	// One mark covers the whole cascade, not each provider
	s.governor.MarkRequest()

	for _, p := range s.providers {
		if !s.governor.CanCall(p.Name()) {
			slog.Debug("provider in cooldown",
				slog.String("provider", p.Name()),
				slog.Duration("remaining", s.governor.CooldownRemaining(p.Name())),
			)
			continue
		}

		s.metrics.RecordProviderCall()
		price, err := p.FetchPrice(ctx, sym)
		if err == nil {
			quote := domain.Quote{Symbol: sym, Price: price, ObservedAt: s.now()}
			if quote.Valid() {
				s.prices.Put(sym, quote.Price)
				s.persist(quote)
				return quote.Price, nil
			}
			// zero or negative price counts as no data
			err = domain.ErrNoData
		}

		if retryAfter, limited := domain.IsRateLimited(err); limited {
			s.governor.RecordThrottled(p.Name(), retryAfter)
			s.metrics.RecordRateLimit()
			slog.Warn("provider rate limited",
				slog.String("provider", p.Name()),
				slog.String("symbol", sym),
				slog.Duration("retry_after", retryAfter),
			)
			continue
		}

		s.metrics.RecordProviderError()
		slog.Debug("provider fetch failed",
			slog.String("provider", p.Name()),
			slog.String("symbol", sym),
			slog.Any("error", err),
		)
	}

	return s.degrade(sym)
}

// degrade serves the fallback chain after the cascade is skipped or exhausted
func (s *PriceService) degrade(sym string) (decimal.Decimal, error) {
	if price, observedAt, ok := s.prices.GetStale(sym); ok {
		s.metrics.RecordStaleFallback()
		slog.Warn("serving stale price",
			slog.String("symbol", sym),
			slog.Time("observed_at", observedAt),
		)
		return price, nil
	}

	if s.store != nil {
		rec, err := s.store.GetPrice(sym)
		if err != nil {
			slog.Warn("store lookup failed", slog.String("symbol", sym), slog.Any("error", err))
		} else if rec != nil && rec.Price.IsPositive() {
			s.metrics.RecordStoreFallback()
			return rec.Price, nil
		}
	}

	s.metrics.RecordUnavailable()
	return decimal.Zero, domain.ErrPriceUnavailable
}

// persist mirrors a fresh quote to the store, best effort
func (s *PriceService) persist(quote domain.Quote) {
	if s.store == nil {
		return
	}
	rec := &domain.PriceRecord{Symbol: quote.Symbol, Price: quote.Price, LastUpdated: quote.ObservedAt}
	if err := s.store.UpsertPrice(rec); err != nil {
		slog.Warn("failed to persist price", slog.String("symbol", quote.Symbol), slog.Any("error", err))
	}
}

// ResolveCompanyName returns the display name for a symbol. It never fails:
// on any error the symbol itself is the last-resort display name.
func (s *PriceService) ResolveCompanyName(ctx context.Context, symbol string) string {
	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return symbol
	}

	if name, ok := s.names.Get(sym); ok {
		return name
	}

	profile, err := s.ResolveCompanyProfile(ctx, sym)
	if err != nil {
		if name, _, ok := s.names.GetStale(sym); ok {
			return name
		}
		return sym
	}
	return profile.Name
}

// ResolveCompanyProfile fetches company metadata through the profile
// provider, honoring its cooldown state. The resolved name is cached;
// the logo URL is left to the asset sync to materialize on disk.
func (s *PriceService) ResolveCompanyProfile(ctx context.Context, symbol string) (domain.CompanyProfile, error) {
	sym := domain.NormalizeSymbol(symbol)
	if s.profile == nil {
		return domain.CompanyProfile{}, domain.ErrNoData
	}
	if !s.governor.CanCall(s.profile.Name()) {
		return domain.CompanyProfile{}, domain.ErrNoData
	}

	name, logoURL, err := s.profile.FetchProfile(ctx, sym)
	if err != nil {
		if retryAfter, limited := domain.IsRateLimited(err); limited {
			s.governor.RecordThrottled(s.profile.Name(), retryAfter)
			s.metrics.RecordRateLimit()
		}
		return domain.CompanyProfile{}, err
	}

	s.names.Put(sym, name)
	return domain.CompanyProfile{Symbol: sym, Name: name, LogoURL: logoURL}, nil
}

// PreloadCache warms the in-memory cache from the persistent store.
// Entries keep their stored timestamps, so anything past the TTL comes up
// stale-but-reachable rather than fresh.
func (s *PriceService) PreloadCache(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}

	recs, err := s.store.AllPrices()
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, rec := range recs {
		if !rec.Price.IsPositive() {
			continue
		}
		s.prices.PutAt(domain.NormalizeSymbol(rec.Symbol), rec.Price, rec.LastUpdated)
		loaded++
	}
	slog.Info("price cache preloaded", slog.Int("entries", loaded))
	return loaded, nil
}

// FlushCache persists the whole in-memory cache in one transaction.
// Best effort: intended for the shutdown path, where the caller logs and
// swallows the error so shutdown never hangs on a failed write.
func (s *PriceService) FlushCache(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	snap := s.prices.Snapshot()
	recs := make([]domain.PriceRecord, 0, len(snap))
	for sym, e := range snap {
		recs = append(recs, domain.PriceRecord{
			Symbol:      sym,
			Price:       e.Value,
			LastUpdated: e.ObservedAt,
		})
	}
	return s.store.SaveAll(recs)
}

// ClearCache wipes the in-memory price cache. Administrative reset only;
// the persistent store is untouched.
func (s *PriceService) ClearCache() {
	s.prices.Clear()
}

// CachedQuoteCount returns the number of entries in the price cache
func (s *PriceService) CachedQuoteCount() int {
	return s.prices.Len()
}
