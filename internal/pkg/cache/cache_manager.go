package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

const (
	BannersTTL    = 5 * time.Minute
	CurriculumTTL = 30 * time.Minute
)

// CacheManager holds the caches of public, rarely changing backend data.
// Nothing tied to a session is cached.
type CacheManager struct {
	Banners  *UnifiedCache[[]models.AdBanner]
	Branches *UnifiedCache[[]models.Branch]
	Levels   *UnifiedCache[[]models.Level] // keyed by branch id
	Subjects *UnifiedCache[[]models.Subject]
}

// NewCacheManager creates a new cache manager with default TTLs
func NewCacheManager(logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cache")
	return &CacheManager{
		Banners:  NewUnifiedCache[[]models.AdBanner](BannersTTL, "banners", logger),
		Branches: NewUnifiedCache[[]models.Branch](CurriculumTTL, "branches", logger),
		Levels:   NewUnifiedCache[[]models.Level](CurriculumTTL, "levels", logger),
		Subjects: NewUnifiedCache[[]models.Subject](CurriculumTTL, "subjects", logger),
	}
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"banners":  cm.Banners.GetMetrics(),
		"branches": cm.Branches.GetMetrics(),
		"levels":   cm.Levels.GetMetrics(),
		"subjects": cm.Subjects.GetMetrics(),
	}
}

// ClearAll drops every cached entry, e.g. after the curriculum was edited
// on the backend. Metrics are kept.
func (cm *CacheManager) ClearAll() {
	cm.Banners.Clear()
	cm.Branches.Clear()
	cm.Levels.Clear()
	cm.Subjects.Clear()
}
