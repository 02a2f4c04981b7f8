package workers

import (
	"log"
	"sync"
	"time"

	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/services"
)

// StatsRefresher periodically regenerates the global statistics rollup so
// readers mostly hit a warm snapshot. Per-scene rollups are refreshed lazily
// on read; only the global one is worth keeping warm unconditionally.
type StatsRefresher struct {
	Stats    *services.StatisticsService
	Interval time.Duration
	StopChan chan struct{}
	Wg       sync.WaitGroup
}

func NewStatsRefresher(stats *services.StatisticsService, interval time.Duration) *StatsRefresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	r := &StatsRefresher{
		Stats:    stats,
		Interval: interval,
		StopChan: make(chan struct{}),
	}
	r.Wg.Add(1)
	go r.run()
	log.Printf("Started stats refresher (interval: %s)", interval)
	return r
}

func (r *StatsRefresher) run() {
	defer r.Wg.Done()

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Stats.Refresh(models.RollupScopeGlobal); err != nil {
				// readers keep the last-known-good snapshot
				log.Printf("stats refresher: ERROR refreshing global rollup: %v", err)
			}
		case <-r.StopChan:
			log.Println("Stats refresher stopping: Stop signal received")
			return
		}
	}
}

func (r *StatsRefresher) Stop() {
	log.Println("Stopping stats refresher...")
	close(r.StopChan)
	r.Wg.Wait()
	log.Println("Stats refresher stopped")
}
