package video

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/services/geo"
	"github.com/chloe472/Reely/internal/services/media"
	"github.com/chloe472/Reely/internal/services/vision"
)

type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, scratchDir string, fps float64) ([]string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) vision.Result
}

// Pacer spaces out vision API calls. The first Wait returns immediately.
type Pacer interface {
	Wait(ctx context.Context) error
}

type FrameStore interface {
	NewScratchDir() (string, error)
	SaveFrame(sourcePath string, index int) (media.SavedFile, error)
}

type Config struct {
	FPS                 float64
	MaxFrames           int
	SimilarityThreshold float64
}

// Location is one deduplicated place recognized in the video, backed by
// a frame persisted outside the scratch directory.
type Location struct {
	Frame       media.SavedFile
	FrameNumber int
	Timestamp   string
	Result      vision.Result
}

type Summary struct {
	TotalFrames int
	// AnalyzedFrames counts results with usable coordinates, duplicates
	// included; frames that fail analysis or come back without
	// coordinates do not count.
	AnalyzedFrames  int
	UniqueLocations int
	Locations       []Location
	ProcessingTime  time.Duration
}

// Pipeline turns a video into a set of distinct recognized locations:
// extract frames, subsample to a budget, analyze sequentially, drop
// frames without usable coordinates, and merge near-duplicate places.
type Pipeline struct {
	extractor FrameExtractor
	analyzer  Analyzer
	pacer     Pacer
	store     FrameStore
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewPipeline(extractor FrameExtractor, analyzer Analyzer, pacer Pacer, store FrameStore, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.FPS <= 0 {
		cfg.FPS = 0.2
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = 20
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.7
	}

	return &Pipeline{
		extractor: extractor,
		analyzer:  analyzer,
		pacer:     pacer,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *Pipeline) Process(ctx context.Context, videoPath string) (Summary, error) {
	started := p.now()

	scratch, err := p.store.NewScratchDir()
	if err != nil {
		return Summary{}, fmt.Errorf("prepare scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			p.logger.Warn("scratch cleanup failed", zap.String("dir", scratch), zap.Error(err))
		}
	}()

	extracted, err := p.extractor.ExtractFrames(ctx, videoPath, scratch, p.cfg.FPS)
	if err != nil {
		return Summary{}, err
	}

	retained := subsample(extracted, p.cfg.MaxFrames)
	p.logger.Info("video frames extracted",
		zap.String("video", videoPath),
		zap.Int("total", len(extracted)),
		zap.Int("retained", len(retained)))

	var locations []Location
	analyzed := 0
	for i, framePath := range retained {
		if err := p.pacer.Wait(ctx); err != nil {
			return Summary{}, fmt.Errorf("pace vision calls: %w", err)
		}

		image, err := os.ReadFile(framePath)
		if err != nil {
			p.logger.Warn("read frame failed", zap.String("frame", framePath), zap.Error(err))
			continue
		}

		result := p.analyzer.Analyze(ctx, image, "image/jpeg")
		if !result.HasCoordinates() || result.HardError() {
			continue
		}
		analyzed++

		if p.duplicateOf(locations, result) {
			continue
		}

		frameNumber := i + 1
		saved, err := p.store.SaveFrame(framePath, frameNumber)
		if err != nil {
			p.logger.Warn("persist frame failed", zap.String("frame", framePath), zap.Error(err))
			continue
		}

		locations = append(locations, Location{
			Frame:       saved,
			FrameNumber: frameNumber,
			Timestamp:   frameTimestamp(i, p.cfg.FPS),
			Result:      result,
		})
	}

	return Summary{
		TotalFrames:     len(extracted),
		AnalyzedFrames:  analyzed,
		UniqueLocations: len(locations),
		Locations:       locations,
		ProcessingTime:  p.now().Sub(started),
	}, nil
}

// duplicateOf reports whether the candidate is close enough to an
// already-accepted location. First seen wins.
func (p *Pipeline) duplicateOf(accepted []Location, candidate vision.Result) bool {
	lat, lng, ok := candidate.Coordinates()
	if !ok {
		return false
	}
	for _, loc := range accepted {
		alat, alng, ok := loc.Result.Coordinates()
		if !ok {
			continue
		}
		distance := geo.HaversineKM(lat, lng, alat, alng)
		if geo.Similarity(distance) >= p.cfg.SimilarityThreshold {
			return true
		}
	}
	return false
}

// subsample keeps an even spread of at most max frames.
func subsample(frames []string, max int) []string {
	if len(frames) <= max {
		return frames
	}

	step := len(frames) / max
	retained := make([]string, 0, max)
	for i := range frames {
		if i%step == 0 {
			retained = append(retained, frames[i])
			if len(retained) == max {
				break
			}
		}
	}
	return retained
}

func frameTimestamp(index int, fps float64) string {
	return fmt.Sprintf("%.1fs", float64(index)/fps)
}
