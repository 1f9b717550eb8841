package media

import (
	"context"
	"os"
	"path/filepath"
)

// Stabilizer removes camera shake from video files.
type Stabilizer struct {
	runner *Runner
}

func NewStabilizer(runner *Runner) *Stabilizer {
	return &Stabilizer{runner: runner}
}

// Stabilize runs the two-pass vid.stab pipeline: a detect pass writes motion
// transforms to a sidecar file, a transform pass applies them with smoothing.
func (s *Stabilizer) Stabilize(ctx context.Context, input, output string) error {
	transforms := filepath.Join(s.runner.WorkDir(), "transforms.trf")
	defer os.Remove(transforms)

	detect := "vidstabdetect=shakiness=10:accuracy=15:result=" + transforms
	if err := s.runner.ffmpeg(ctx, "-i", input, "-vf", detect, "-f", "null", "-"); err != nil {
		return err
	}

	transform := "vidstabtransform=input=" + transforms + ":zoom=0:smoothing=10,unsharp=5:5:0.8:3:3:0.4"
	return s.runner.ffmpeg(ctx, "-i", input, "-vf", transform, output)
}

// Deshake is the single-pass fallback for builds without vid.stab.
func (s *Stabilizer) Deshake(ctx context.Context, input, output string) error {
	return s.runner.ffmpeg(ctx, "-i", input, "-vf", "deshake", output)
}
