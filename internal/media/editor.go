package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Editor performs cut/merge/filter operations on local video files.
type Editor struct {
	runner *Runner
}

func NewEditor(runner *Runner) *Editor {
	return &Editor{runner: runner}
}

// Trim cuts [start, start+duration) out of the input without re-encoding.
func (e *Editor) Trim(ctx context.Context, input, output, start, duration string) error {
	return e.runner.ffmpeg(ctx, "-i", input, "-ss", start, "-t", duration, "-c", "copy", output)
}

// Merge concatenates inputs in order using ffmpeg's concat demuxer.
func (e *Editor) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("merge needs at least two inputs, got %d", len(inputs))
	}

	listFile, err := os.CreateTemp(e.runner.WorkDir(), "concat-*.txt")
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	var list strings.Builder
	for _, in := range inputs {
		fmt.Fprintf(&list, "file '%s'\n", filepath.Clean(in))
	}
	if _, err := listFile.WriteString(list.String()); err != nil {
		listFile.Close()
		return fmt.Errorf("write concat list: %w", err)
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("close concat list: %w", err)
	}

	return e.runner.ffmpeg(ctx, "-f", "concat", "-safe", "0", "-i", listFile.Name(), "-c", "copy", output)
}

// AddAudio replaces the input's audio track with the given audio file.
func (e *Editor) AddAudio(ctx context.Context, video, audio, output string) error {
	return e.runner.ffmpeg(ctx,
		"-i", video, "-i", audio,
		"-c:v", "copy", "-map", "0:v:0", "-map", "1:a:0",
		"-shortest", output,
	)
}

// ChangeSpeed speeds video and audio up by factor (>1 faster, <1 slower).
// atempo only accepts 0.5..2.0, which covers the spoken command range.
func (e *Editor) ChangeSpeed(ctx context.Context, input, output string, factor float64) error {
	if factor < 0.5 || factor > 2.0 {
		return fmt.Errorf("speed factor %.2f out of range [0.5, 2.0]", factor)
	}
	filter := fmt.Sprintf("[0:v]setpts=PTS/%.2f[v];[0:a]atempo=%.2f[a]", factor, factor)
	return e.runner.ffmpeg(ctx,
		"-i", input,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		output,
	)
}

// ExtractAudio pulls the audio track out of a video file.
func (e *Editor) ExtractAudio(ctx context.Context, input, output string) error {
	return e.runner.ffmpeg(ctx, "-i", input, "-q:a", "0", "-map", "a", output)
}

// AddWatermark overlays an image in the top-left corner.
func (e *Editor) AddWatermark(ctx context.Context, video, image, output string) error {
	return e.runner.ffmpeg(ctx,
		"-i", video, "-i", image,
		"-filter_complex", "overlay=10:10",
		output,
	)
}

// Enhance applies a mild brightness/saturation lift and sharpening.
func (e *Editor) Enhance(ctx context.Context, input, output string) error {
	return e.runner.ffmpeg(ctx,
		"-i", input,
		"-vf", "eq=brightness=0.06:saturation=1.3,unsharp=5:5:1.0",
		output,
	)
}

// Denoise runs the hqdn3d spatial/temporal denoiser.
func (e *Editor) Denoise(ctx context.Context, input, output string) error {
	return e.runner.ffmpeg(ctx, "-i", input, "-vf", "hqdn3d=4:3:6:4.5", output)
}

// ExtractFrame grabs a single frame at the given timestamp.
func (e *Editor) ExtractFrame(ctx context.Context, input, output, timestamp string) error {
	return e.runner.ffmpeg(ctx, "-i", input, "-ss", timestamp, "-vframes", "1", output)
}

// imageFilters maps spoken filter names to ffmpeg filter expressions.
var imageFilters = map[string]string{
	"grayscale": "hue=s=0",
	"sepia":     "colorchannelmixer=.393:.769:.189:0:.349:.686:.168:0:.272:.534:.131",
	"blur":      "gblur=sigma=5",
	"brighten":  "eq=brightness=0.2",
	"darken":    "eq=brightness=-0.2",
	"contrast":  "eq=contrast=1.5",
	"sharpen":   "unsharp=5:5:1.0",
}

// FilterNames lists the filters ApplyFilter accepts, in spoken order.
func FilterNames() []string {
	return []string{"grayscale", "sepia", "blur", "brighten", "darken", "contrast", "sharpen"}
}

// ApplyFilter renders a named filter onto an image or video.
func (e *Editor) ApplyFilter(ctx context.Context, input, output, filter string) error {
	expr, ok := imageFilters[strings.ToLower(strings.TrimSpace(filter))]
	if !ok {
		return fmt.Errorf("unknown filter %q", filter)
	}
	return e.runner.ffmpeg(ctx, "-i", input, "-vf", expr, output)
}

// Rotate turns an image clockwise by a multiple of 90 degrees.
func (e *Editor) Rotate(ctx context.Context, input, output string, degrees int) error {
	var expr string
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		expr = "transpose=1"
	case 180:
		expr = "transpose=1,transpose=1"
	case 270:
		expr = "transpose=2"
	default:
		return fmt.Errorf("rotation must be a multiple of 90, got %d", degrees)
	}
	return e.runner.ffmpeg(ctx, "-i", input, "-vf", expr, output)
}

// Crop cuts a width by height region starting at (x, y).
func (e *Editor) Crop(ctx context.Context, input, output string, width, height, x, y int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("crop size must be positive, got %dx%d", width, height)
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("crop origin must be non-negative, got (%d, %d)", x, y)
	}
	return e.runner.ffmpeg(ctx, "-i", input, "-vf", fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y), output)
}
