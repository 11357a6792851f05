package telegramhelper

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileCleaner periodically removes run directories left behind under the
// export root, e.g. after a crash between export and delivery.
type FileCleaner struct {
	baseDir          string // Directory containing run_* folders
	cleanupInterval  time.Duration
	dirAgeThreshold  time.Duration
	stopChan         chan struct{}
	wg               sync.WaitGroup
	isRunning        bool
	isRunningMutex   sync.Mutex
	runFolderPattern *regexp.Regexp
	logger           zerolog.Logger
}

// NewFileCleaner creates a new file cleaner instance
func NewFileCleaner(baseDir string, cleanupInterval, dirAgeThreshold time.Duration, logger zerolog.Logger) *FileCleaner {
	return &FileCleaner{
		baseDir:          baseDir,
		cleanupInterval:  cleanupInterval,
		dirAgeThreshold:  dirAgeThreshold,
		stopChan:         make(chan struct{}),
		runFolderPattern: regexp.MustCompile(`^run_`),
		logger:           logger,
	}
}

// Start begins the file cleaning goroutine
func (fc *FileCleaner) Start() error {
	fc.isRunningMutex.Lock()
	defer fc.isRunningMutex.Unlock()

	if fc.isRunning {
		return fmt.Errorf("file cleaner is already running")
	}
	if fc.cleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", fc.cleanupInterval)
	}

	// The base directory may not exist yet; each cycle checks for it.

	fc.isRunning = true
	fc.wg.Add(1)

	go fc.cleaningLoop()

	fc.logger.Info().
		Str("base_dir", fc.baseDir).
		Str("path_pattern", filepath.Join(fc.baseDir, "run_*")).
		Float64("dir_age_threshold_minutes", fc.dirAgeThreshold.Minutes()).
		Float64("cleanup_interval_minutes", fc.cleanupInterval.Minutes()).
		Msg("File cleaner started")

	return nil
}

// Stop terminates the file cleaning goroutine
func (fc *FileCleaner) Stop() {
	fc.isRunningMutex.Lock()
	defer fc.isRunningMutex.Unlock()

	if !fc.isRunning {
		return
	}

	close(fc.stopChan)
	fc.wg.Wait()
	fc.isRunning = false
	fc.logger.Info().Msg("File cleaner stopped")
}

// cleaningLoop runs the cleanup process at scheduled intervals
func (fc *FileCleaner) cleaningLoop() {
	defer fc.wg.Done()

	fc.CleanOnce(time.Now())

	ticker := time.NewTicker(fc.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case t := <-ticker.C:
			fc.CleanOnce(t)
		case <-fc.stopChan:
			return
		}
	}
}

// CleanOnce removes run directories last modified before now minus the age
// threshold and returns how many were removed.
func (fc *FileCleaner) CleanOnce(now time.Time) int {
	fc.logger.Debug().Msg("Starting cleanup of run folders")

	cutoffTime := now.Add(-fc.dirAgeThreshold)

	if _, err := os.Stat(fc.baseDir); os.IsNotExist(err) {
		fc.logger.Debug().Str("base_dir", fc.baseDir).Msg("Base directory does not exist yet, skipping cleanup")
		return 0
	}

	entries, err := os.ReadDir(fc.baseDir)
	if err != nil {
		fc.logger.Error().Err(err).Str("base_dir", fc.baseDir).Msg("Error reading base directory")
		return 0
	}

	var removed int
	for _, entry := range entries {
		if !entry.IsDir() || !fc.runFolderPattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			fc.logger.Error().Err(err).Str("folder", entry.Name()).Msg("Error getting folder info")
			continue
		}
		if !info.ModTime().Before(cutoffTime) {
			continue
		}

		path := filepath.Join(fc.baseDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			fc.logger.Error().Err(err).Str("path", path).Msg("Failed to remove run folder")
			continue
		}
		fc.logger.Debug().
			Str("path", path).
			Float64("age_minutes", now.Sub(info.ModTime()).Minutes()).
			Msg("Removed stale run folder")
		removed++
	}

	if removed > 0 {
		fc.logger.Info().
			Int("folders_cleaned", removed).
			Float64("age_threshold_minutes", fc.dirAgeThreshold.Minutes()).
			Msg("Completed file cleanup")
	} else {
		fc.logger.Debug().Msg("No run folders needed cleaning")
	}
	return removed
}
