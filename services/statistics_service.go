package services

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/repository"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// StatisticsService derives rollup snapshots from the component rows. It
// plays the role the source system gave to materialized views: snapshots are
// computed off the write path, persisted as versioned rows, and served from
// an in-memory pointer that is swapped wholesale on refresh. Staleness up to
// the configured bound is accepted by design; per-scene counters on
// RoomScene are the consistent source for review progress, not these.
type StatisticsService struct {
	sqlDB      *sql.DB
	rollups    repository.RollupRepositoryInterface
	staleAfter time.Duration

	mu     sync.RWMutex
	latest map[uint]*models.StatsRollup // scope (scene id / RollupScopeGlobal) -> current snapshot
}

func NewStatisticsService(db *gorm.DB, rollups repository.RollupRepositoryInterface, staleAfter time.Duration) (*StatisticsService, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB for statistics: %w", err)
	}
	return &StatisticsService{
		sqlDB:      sqlDB,
		rollups:    rollups,
		staleAfter: staleAfter,
		latest:     make(map[uint]*models.StatsRollup),
	}, nil
}

// Refresh computes a new immutable snapshot for the given scope
// (models.RollupScopeGlobal for all scenes), persists it, and swaps the
// served pointer. Concurrent readers keep getting the previous snapshot
// until the swap.
func (s *StatisticsService) Refresh(sceneID uint) (*models.StatsRollup, error) {
	rollup, err := s.compute(sceneID)
	if err != nil {
		return nil, err
	}
	if err := s.rollups.Insert(rollup); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest[sceneID] = rollup
	s.mu.Unlock()

	return rollup, nil
}

// Latest serves the current snapshot for the scope, refreshing inline only
// when the cached one is older than the staleness bound. A failed refresh is
// logged and the last-known-good snapshot is served instead; readers are
// never blocked on aggregation errors.
func (s *StatisticsService) Latest(sceneID uint) (*models.StatsRollup, error) {
	s.mu.RLock()
	cached := s.latest[sceneID]
	s.mu.RUnlock()

	if cached == nil {
		// fall back to the most recent persisted snapshot (e.g., after restart)
		if persisted, err := s.rollups.Latest(sceneID); err == nil {
			s.mu.Lock()
			if s.latest[sceneID] == nil {
				s.latest[sceneID] = persisted
			}
			cached = s.latest[sceneID]
			s.mu.Unlock()
		}
	}

	if cached != nil && time.Since(time.Unix(cached.RefreshedAt, 0)) <= s.staleAfter {
		return cached, nil
	}

	fresh, err := s.Refresh(sceneID)
	if err != nil {
		if cached != nil {
			log.Printf("stats: refresh for scope %d failed, serving stale snapshot from %d: %v", sceneID, cached.RefreshedAt, err)
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}

// compute runs the aggregation queries for one scope and assembles the
// snapshot. It reads committed data only and holds no transaction across
// queries; a refresh racing a review simply lands on whichever side the
// review committed, which the staleness contract already allows.
func (s *StatisticsService) compute(sceneID uint) (*models.StatsRollup, error) {
	rollup := &models.StatsRollup{
		SceneID:     sceneID,
		RefreshedAt: time.Now().Unix(),
	}

	scoped := func(b sq.SelectBuilder) sq.SelectBuilder {
		if sceneID != models.RollupScopeGlobal {
			return b.Where(sq.Eq{"room_scene_id": sceneID})
		}
		return b
	}

	// base aggregates
	{
		query, args, err := scoped(psql.
			Select("COUNT(*)", "AVG(confidence_score)", "MIN(created_at)", "MAX(created_at)").
			From("components")).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build base aggregate query: %w", err)
		}
		var (
			avgConf    sql.NullFloat64
			minCreated sql.NullInt64
			maxCreated sql.NullInt64
		)
		if err := s.sqlDB.QueryRow(query, args...).Scan(&rollup.TotalComponents, &avgConf, &minCreated, &maxCreated); err != nil {
			return nil, fmt.Errorf("failed to compute base aggregates: %w", err)
		}
		if avgConf.Valid {
			rollup.AvgConfidence = &avgConf.Float64
		}
		if minCreated.Valid {
			rollup.FirstDetectedAt = &minCreated.Int64
		}
		if maxCreated.Valid {
			rollup.LastDetectedAt = &maxCreated.Int64
		}
	}

	// mean review latency over reviewed components only
	{
		query, args, err := scoped(psql.
			Select("AVG(reviewed_at - created_at)").
			From("components").
			Where("reviewed_at IS NOT NULL")).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build review latency query: %w", err)
		}
		var avgLatency sql.NullFloat64
		if err := s.sqlDB.QueryRow(query, args...).Scan(&avgLatency); err != nil {
			return nil, fmt.Errorf("failed to compute review latency: %w", err)
		}
		if avgLatency.Valid {
			rollup.AvgReviewSeconds = &avgLatency.Float64
		}
	}

	statusDist, err := s.groupedCounts(scoped(psql.
		Select("status", "COUNT(*)").
		From("components").
		GroupBy("status")))
	if err != nil {
		return nil, fmt.Errorf("failed to compute status distribution: %w", err)
	}
	rollup.StatusDistribution = statusDist

	typeDist, err := s.groupedCounts(scoped(psql.
		Select("component_type", "COUNT(*)").
		From("components").
		GroupBy("component_type")))
	if err != nil {
		return nil, fmt.Errorf("failed to compute type distribution: %w", err)
	}
	rollup.TypeDistribution = typeDist

	rejectionReasons, err := s.groupedCounts(scoped(psql.
		Select("reviewer_notes", "COUNT(*)").
		From("components").
		Where(sq.Eq{"status": models.StatusRejected}).
		Where("reviewer_notes IS NOT NULL AND reviewer_notes != ''").
		GroupBy("reviewer_notes")))
	if err != nil {
		return nil, fmt.Errorf("failed to compute rejection reasons: %w", err)
	}
	rollup.RejectionReasons = rejectionReasons

	// acceptance rate is defined as 0 for an empty scope, never an error
	if rollup.TotalComponents > 0 {
		if accepted, ok := statusDist[string(models.StatusAccepted)]; ok {
			rollup.AcceptanceRate = float64(accepted.(int)) / float64(rollup.TotalComponents)
		}
	}

	confidences, err := s.confidences(scoped(psql.
		Select("confidence_score").
		From("components").
		Where("confidence_score IS NOT NULL")))
	if err != nil {
		return nil, fmt.Errorf("failed to load confidence scores: %w", err)
	}
	if len(confidences) > 0 {
		sort.Float64s(confidences)
		median := percentile(confidences, 0.5)
		rollup.MedianConfidence = &median
	}
	rollup.ConfidenceHistogram = confidenceHistogram(confidences)

	return rollup, nil
}

// groupedCounts runs a two-column (key, count) aggregation into a JSON map.
func (s *StatisticsService) groupedCounts(builder sq.SelectBuilder) (datatypes.JSONMap, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := datatypes.JSONMap{}
	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		if key.Valid {
			result[key.String] = count
		}
	}
	return result, rows.Err()
}

func (s *StatisticsService) confidences(builder sq.SelectBuilder) ([]float64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// percentile uses floor-based indexing over an already-sorted slice; for
// small samples neighbouring percentiles may coincide.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// confidenceHistogram bins 0-100 scores into ten-wide buckets labelled
// "40-50"; a perfect 100 lands in the top bucket.
func confidenceHistogram(scores []float64) datatypes.JSONMap {
	hist := datatypes.JSONMap{}
	for _, score := range scores {
		bin := int(score/10) * 10
		if bin > 90 {
			bin = 90
		}
		if bin < 0 {
			bin = 0
		}
		label := fmt.Sprintf("%d-%d", bin, bin+10)
		if current, ok := hist[label]; ok {
			hist[label] = current.(int) + 1
		} else {
			hist[label] = 1
		}
	}
	return hist
}
