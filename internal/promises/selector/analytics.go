package selector

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"promisetracker/internal/promises/models"
	id "promisetracker/pkg/domain"
	dErrors "promisetracker/pkg/domain-errors"
)

// AnalyticsCache holds computed tallies. Implementations swallow backend
// errors and report a miss instead. Set must drop records computed under a
// generation that an invalidation has since retired.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]models.AnalyticsRecord, bool)
	Generation() uint64
	Set(ctx context.Context, key string, generation uint64, records []models.AnalyticsRecord) bool
}

type CacheMetrics interface {
	IncAnalyticsCache(result string)
}

type AnalyticsSelector struct {
	store   Store
	cache   AnalyticsCache
	metrics CacheMetrics
	logger  *slog.Logger
	group   singleflight.Group
}

type AnalyticsOption func(*AnalyticsSelector)

func WithCache(cache AnalyticsCache) AnalyticsOption {
	return func(s *AnalyticsSelector) {
		s.cache = cache
	}
}

func WithCacheMetrics(m CacheMetrics) AnalyticsOption {
	return func(s *AnalyticsSelector) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) AnalyticsOption {
	return func(s *AnalyticsSelector) {
		s.logger = logger
	}
}

func NewAnalyticsSelector(store Store, opts ...AnalyticsOption) *AnalyticsSelector {
	s := &AnalyticsSelector{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analytics returns completed/uncompleted counts per party, or for one party
// when partyID is set. An unknown party is NotFound; a known party with no
// closed promises yields an empty list.
func (s *AnalyticsSelector) Analytics(ctx context.Context, partyID *id.PartyID) ([]models.AnalyticsRecord, error) {
	key := "all"
	if partyID != nil {
		if _, err := s.store.FindParty(ctx, *partyID); err != nil {
			return nil, lookupErr(err, PartyNotFoundMessage)
		}
		key = "party:" + partyID.String()
	}

	var generation uint64
	if s.cache != nil {
		generation = s.cache.Generation()
		if records, ok := s.cache.Get(ctx, key); ok {
			s.count("hit")
			return records, nil
		}
		s.count("miss")
	}

	// Callers arriving after an invalidation must not join a computation
	// started before it.
	flight := key + "@" + strconv.FormatUint(generation, 10)
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		records, err := s.store.FinalResultCounts(shared, partyID)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []models.AnalyticsRecord{}
		}
		if s.cache != nil {
			s.cache.Set(shared, key, generation, records)
		}
		return records, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute analytics")
	}
	return v.([]models.AnalyticsRecord), nil
}

func (s *AnalyticsSelector) count(result string) {
	if s.metrics != nil {
		s.metrics.IncAnalyticsCache(result)
	}
}
