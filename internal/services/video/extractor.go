package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var ErrExtraction = errors.New("frame extraction failed")

// Extractor shells out to ffmpeg to sample a video into numbered JPEG
// frames inside a scratch directory.
type Extractor struct {
	ffmpegPath string
	logger     *zap.Logger
}

func NewExtractor(ffmpegPath string, logger *zap.Logger) *Extractor {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{ffmpegPath: ffmpegPath, logger: logger}
}

// ExtractFrames samples the video at the given rate and returns the
// frame paths in playback order.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, scratchDir string, fps float64) ([]string, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps must be positive", ErrExtraction)
	}

	pattern := filepath.Join(scratchDir, "frame-%04d.jpg")
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-q:v", "2",
		pattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		e.logger.Warn("ffmpeg failed",
			zap.String("video", videoPath),
			zap.ByteString("output", tailBytes(output, 2048)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	frames, err := filepath.Glob(filepath.Join(scratchDir, "frame-*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("%w: list frames: %v", ErrExtraction, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames produced", ErrExtraction)
	}

	sort.Strings(frames)
	return frames, nil
}

func tailBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
