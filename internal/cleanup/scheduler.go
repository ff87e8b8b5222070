package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/voicescribe/voicescribe/internal/cache"
)

// Scheduler periodically evicts expired cache entries and removes stale
// temporary audio files left behind by crashed jobs.
type Scheduler struct {
	store           cache.Store
	tempDir         string
	intervalMinutes int
	tempMaxAgeHours int
	stopChan        chan struct{}
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(store cache.Store, tempDir string, intervalMinutes, tempMaxAgeHours int) *Scheduler {
	// A zero interval would panic time.NewTicker in Start.
	if intervalMinutes <= 0 {
		intervalMinutes = 180
	}
	if tempMaxAgeHours <= 0 {
		tempMaxAgeHours = 24
	}
	return &Scheduler{
		store:           store,
		tempDir:         tempDir,
		intervalMinutes: intervalMinutes,
		tempMaxAgeHours: tempMaxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the cleanup scheduler
func (s *Scheduler) Start() {
	// Run an initial sweep on startup
	log.Println("Running initial cleanup sweep...")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, temp max age: %dh)",
		s.intervalMinutes, s.tempMaxAgeHours)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

func (s *Scheduler) sweep() {
	s.evictExpired()
	s.cleanOldFiles()
}

// evictExpired physically removes cache entries past their validity window.
// Readers already treat them as absent, so timing here is not correctness.
func (s *Scheduler) evictExpired() {
	removed, err := s.store.EvictExpired()
	if err != nil {
		log.Printf("Cache eviction failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Evicted %d expired transcriptions", removed)
	}
}

// cleanOldFiles removes files older than tempMaxAgeHours from temp directory
func (s *Scheduler) cleanOldFiles() {
	now := time.Now()
	maxAge := time.Duration(s.tempMaxAgeHours) * time.Hour

	var deletedCount int

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age > maxAge {
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete old file %s: %v", path, err)
			} else {
				deletedCount++
				log.Printf("Deleted old temp file: %s (age: %s)",
					filepath.Base(path), age.Round(time.Hour))
			}
		}

		return nil
	})

	if err != nil {
		log.Printf("Error during temp cleanup: %v", err)
	}

	if deletedCount > 0 {
		log.Printf("Temp cleanup complete: %d files deleted", deletedCount)
	}
}

// EnsureTempDirExists creates the temp directory if it doesn't exist
func EnsureTempDirExists(tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	log.Printf("Temp directory ready: %s", tempDir)
	return nil
}
