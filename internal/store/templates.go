package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/service/cache"
	"github.com/railsign/isl-announce-go/internal/service/database"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

const (
	templateKeyPrefix = "isl:template:"
	routeKeyPrefix    = "isl:route_translation:"
)

// templateCache is the slice of the Redis cache the store needs.
type templateCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// TemplateStore reads announcement templates and train-route translations,
// serving repeat lookups from Redis. A nil cache disables caching.
type TemplateStore struct {
	db     *sql.DB
	cache  templateCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewTemplateStore(postgres *database.PostgresService, cacheSvc *cache.CacheService, ttl time.Duration, logger *zap.Logger) *TemplateStore {
	s := &TemplateStore{
		db:     postgres.GetDB(),
		ttl:    ttl,
		logger: logger,
	}
	if cacheSvc != nil {
		s.cache = cacheSvc
	}
	return s
}

// GetByCategory returns the template set for a category, or nil when no
// template exists.
func (s *TemplateStore) GetByCategory(ctx context.Context, category string) (*domain.AnnouncementTemplate, error) {
	cacheKey := templateKeyPrefix + category
	if s.cache != nil {
		var cached domain.AnnouncementTemplate
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	query := `
		SELECT id, template_category,
		       COALESCE(template_text_english, ''),
		       COALESCE(template_text_hindi, ''),
		       COALESCE(template_text_marathi, ''),
		       COALESCE(template_text_gujarati, '')
		FROM announcement_templates
		WHERE template_category = $1
		LIMIT 1
	`

	var tmpl domain.AnnouncementTemplate
	err := s.db.QueryRowContext(ctx, query, category).Scan(
		&tmpl.ID, &tmpl.Category, &tmpl.English, &tmpl.Hindi, &tmpl.Marathi, &tmpl.Gujarati,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query template", "get_template", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, &tmpl, s.ttl); err != nil {
			s.logger.Warn("Failed to cache template", zap.String("category", category), zap.Error(err))
		}
	}
	return &tmpl, nil
}

// GetRouteTranslations returns the translated names for a train number, or
// nil when either the route or its translation row is missing.
func (s *TemplateStore) GetRouteTranslations(ctx context.Context, trainNumber string) (*domain.RouteTranslation, error) {
	cacheKey := routeKeyPrefix + trainNumber
	if s.cache != nil {
		var cached domain.RouteTranslation
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	query := `
		SELECT r.train_number,
		       COALESCE(t.train_name_hi, ''), COALESCE(t.from_station_name_hi, ''), COALESCE(t.to_station_name_hi, ''),
		       COALESCE(t.train_name_mr, ''), COALESCE(t.from_station_name_mr, ''), COALESCE(t.to_station_name_mr, ''),
		       COALESCE(t.train_name_gu, ''), COALESCE(t.from_station_name_gu, ''), COALESCE(t.to_station_name_gu, '')
		FROM train_routes r
		JOIN train_route_translations t ON t.train_route_id = r.id
		WHERE r.train_number = $1
		LIMIT 1
	`

	var tr domain.RouteTranslation
	err := s.db.QueryRowContext(ctx, query, trainNumber).Scan(
		&tr.TrainNumber,
		&tr.TrainNameHi, &tr.FromStationHi, &tr.ToStationHi,
		&tr.TrainNameMr, &tr.FromStationMr, &tr.ToStationMr,
		&tr.TrainNameGu, &tr.FromStationGu, &tr.ToStationGu,
	)
	if err == sql.ErrNoRows {
		s.logger.Warn("No route translations for train", zap.String("train_number", trainNumber))
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("failed to query route translations", "get_route_translations", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, &tr, s.ttl); err != nil {
			s.logger.Warn("Failed to cache route translations", zap.String("train_number", trainNumber), zap.Error(err))
		}
	}
	return &tr, nil
}

// InvalidateTemplate drops the cached entry after a template update.
func (s *TemplateStore) InvalidateTemplate(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, templateKeyPrefix+category); err != nil {
		s.logger.Warn("Failed to invalidate template cache", zap.String("category", category), zap.Error(err))
	}
}

// InvalidateAll drops every cached template and route translation, for use
// after a bulk template or route import.
func (s *TemplateStore) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	for _, pattern := range []string{templateKeyPrefix + "*", routeKeyPrefix + "*"} {
		keys, err := s.cache.Keys(ctx, pattern)
		if err != nil {
			return err
		}
		if err := s.cache.Del(ctx, keys...); err != nil {
			return err
		}
	}
	return nil
}
