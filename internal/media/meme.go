package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// MemeMaker captions images and video frames in the classic top/bottom style.
type MemeMaker struct {
	runner *Runner
}

func NewMemeMaker(runner *Runner) *MemeMaker {
	return &MemeMaker{runner: runner}
}

// CaptionImage burns top and bottom text into an image.
func (m *MemeMaker) CaptionImage(ctx context.Context, image, topText, bottomText, output string) error {
	filter := captionFilter(topText, bottomText)
	return m.runner.ffmpeg(ctx, "-i", image, "-vf", filter, output)
}

// CaptionVideoFrame extracts a frame at the timestamp and captions it.
func (m *MemeMaker) CaptionVideoFrame(ctx context.Context, video, timestamp, topText, bottomText, output string) error {
	frame := filepath.Join(m.runner.WorkDir(), "meme_frame.jpg")
	if err := m.runner.ffmpeg(ctx, "-i", video, "-ss", timestamp, "-vframes", "1", frame); err != nil {
		return err
	}
	return m.CaptionImage(ctx, frame, topText, bottomText, output)
}

func captionFilter(topText, bottomText string) string {
	var parts []string
	if strings.TrimSpace(topText) != "" {
		parts = append(parts, drawText(topText, "h*0.05"))
	}
	if strings.TrimSpace(bottomText) != "" {
		parts = append(parts, drawText(bottomText, "h*0.88"))
	}
	if len(parts) == 0 {
		return "null"
	}
	return strings.Join(parts, ",")
}

func drawText(text, y string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(strings.ToUpper(text))
	return fmt.Sprintf(
		"drawtext=text='%s':x=(w-text_w)/2:y=%s:fontsize=h*0.08:fontcolor=white:borderw=4:bordercolor=black",
		escaped, y,
	)
}
