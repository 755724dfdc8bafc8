package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-engine/internal/models"
	appErrors "github.com/noah-isme/sma-score-engine/pkg/errors"
)

const (
	summaryCachePrefix      = "summary"
	summaryGenerationPrefix = "summary-gen"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the summary read path. Cache failures are logged and
// treated as misses so reads fall through to the database.
//
// Every (student, subject) pair carries a generation counter that is part of
// the cache key. Invalidation bumps the counter, so an entry written by a
// reader that loaded its row before the bump is never served again.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// SummaryKey is the cache key of one student's subject summary for a term at
// the given generation. A zero year or semester addresses the latest term.
func SummaryKey(lookup models.SummaryLookup, generation int64) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%d", summaryCachePrefix, lookup.StudentID, lookup.SubjectID, generation, lookup.Year, lookup.Semester)
}

// SummaryPattern matches every cached entry of a student's subject summary.
func SummaryPattern(studentID, subjectID string) string {
	return fmt.Sprintf("%s:%s:%s:*", summaryCachePrefix, studentID, subjectID)
}

// SummaryGenerationKey holds the invalidation counter of a student's subject summary.
func SummaryGenerationKey(studentID, subjectID string) string {
	return fmt.Sprintf("%s:%s:%s", summaryGenerationPrefix, studentID, subjectID)
}

// SummaryGeneration reads the current generation. Callers must take it before
// loading the row they intend to cache. It returns false when the cache is
// disabled or unreachable, in which case nothing should be cached.
func (s *CacheService) SummaryGeneration(ctx context.Context, studentID, subjectID string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	var generation int64
	err := s.repo.Get(ctx, SummaryGenerationKey(studentID, subjectID), &generation)
	switch {
	case err == nil:
		return generation, true
	case errors.Is(err, appErrors.ErrCacheMiss):
		return 0, true
	default:
		s.logger.Warn("cache generation read failed", zap.String("student_id", studentID), zap.String("subject_id", subjectID), zap.Error(err))
		return 0, false
	}
}

// GetSummary loads a cached summary. It returns false on a miss or a cache error.
func (s *CacheService) GetSummary(ctx context.Context, lookup models.SummaryLookup, generation int64) (*models.ScoreSummary, bool) {
	if !s.Enabled() {
		return nil, false
	}
	key := SummaryKey(lookup, generation)
	start := time.Now()
	var summary models.ScoreSummary
	err := s.repo.Get(ctx, key, &summary)
	s.metrics.RecordCacheLookup(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return &summary, true
}

// SetSummary caches a summary under the lookup and generation it was resolved for.
func (s *CacheService) SetSummary(ctx context.Context, lookup models.SummaryLookup, generation int64, summary *models.ScoreSummary) {
	if !s.Enabled() || summary == nil {
		return
	}
	key := SummaryKey(lookup, generation)
	if err := s.repo.Set(ctx, key, summary, s.defaultTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateSummaries bumps the generation of the given students' subject
// summaries and drops their cached entries.
func (s *CacheService) InvalidateSummaries(ctx context.Context, subjectID string, studentIDs []string) error {
	if !s.Enabled() {
		return nil
	}
	var errs error
	for _, studentID := range studentIDs {
		if _, err := s.repo.Incr(ctx, SummaryGenerationKey(studentID, subjectID)); err != nil {
			s.logger.Warn("cache generation bump failed", zap.String("student_id", studentID), zap.String("subject_id", subjectID), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
		pattern := SummaryPattern(studentID, subjectID)
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
