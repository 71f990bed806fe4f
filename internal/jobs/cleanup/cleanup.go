package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Job sweeps abandoned frame-extraction scratch directories. The video
// pipeline removes its own scratch dir, but a crash mid-run leaves one
// behind; anything older than maxAge is safe to delete.
type Job struct {
	scratchRoot string
	maxAge      time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func New(scratchRoot string, maxAge time.Duration, logger *zap.Logger) *Job {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		scratchRoot: scratchRoot,
		maxAge:      maxAge,
		now:         time.Now,
		logger:      logger,
	}
}

func (j *Job) Run() error {
	entries, err := os.ReadDir(j.scratchRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read scratch root: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(j.scratchRoot, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			j.logger.Warn("remove stale scratch dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("stale scratch dirs removed", zap.Int("removed", removed))
	}

	return nil
}
