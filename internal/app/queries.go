package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"review_insights/internal/domain"
)

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListReviews(ctx context.Context, q domain.ReviewQuery) (domain.ReviewsPage, error) {
	key := fmt.Sprintf("reviews:%s:%s:%d", strings.ToLower(q.Bank), strings.ToLower(q.Theme), q.Limit)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, q)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyRS := deepCopyReviewsPage(rs)

	// optional size guard
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyRS, int(s.cacheTTL.Seconds()))
	}
	return copyRS, nil
}

func (s *QueryService) Aggregates(ctx context.Context, bank string) ([]domain.Aggregate, error) {
	key := "aggregates:" + strings.ToLower(bank)
	var out []domain.Aggregate
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.repo.Aggregates(ctx, bank)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) ThemeCounts(ctx context.Context, bank string) ([]domain.ThemeCount, error) {
	key := "themes:" + strings.ToLower(bank)
	var out []domain.ThemeCount
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.repo.ThemeCounts(ctx, bank)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Invalidate drops cached aggregate and theme views after a new run is
// stored. Review pages expire by TTL.
func (s *QueryService) Invalidate(ctx context.Context, banks ...string) {
	for _, b := range append(banks, "") {
		_ = s.cache.Del(ctx, "aggregates:"+strings.ToLower(b))
		_ = s.cache.Del(ctx, "themes:"+strings.ToLower(b))
	}
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
