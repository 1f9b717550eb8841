package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// AudioLab generates and transforms audio tracks with ffmpeg filters.
type AudioLab struct {
	runner *Runner
}

func NewAudioLab(runner *Runner) *AudioLab {
	return &AudioLab{runner: runner}
}

// instrumentalChord maps a requested mood to sine frequencies.
func instrumentalChord(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "sad":
		return "440|523|622"
	case "energetic":
		return "440|554|659"
	default:
		// C major voicing for "happy" and anything unrecognized.
		return "440|523|659"
	}
}

// GenerateInstrumental synthesizes a 30 second chord bed for the given mood.
func (l *AudioLab) GenerateInstrumental(ctx context.Context, style, output string) error {
	chord := instrumentalChord(style)
	freqs := strings.Split(chord, "|")
	inputs := make([]string, 0, len(freqs)*2)
	for _, f := range freqs {
		inputs = append(inputs, "-f", "lavfi", "-i", fmt.Sprintf("sine=frequency=%s:duration=30", f))
	}
	args := append(inputs,
		"-filter_complex", fmt.Sprintf("amix=inputs=%d:duration=longest", len(freqs)),
		output,
	)
	return l.runner.ffmpeg(ctx, args...)
}

// Mix blends two tracks, padding the shorter one.
func (l *AudioLab) Mix(ctx context.Context, first, second, output string) error {
	return l.runner.ffmpeg(ctx,
		"-i", first, "-i", second,
		"-filter_complex", "amix=inputs=2:duration=longest",
		output,
	)
}

// AddBackgroundMusic ducks the music to 30% under the voice track.
func (l *AudioLab) AddBackgroundMusic(ctx context.Context, voice, music, output string) error {
	return l.runner.ffmpeg(ctx,
		"-i", voice, "-i", music,
		"-filter_complex", "[1:a]volume=0.3[bg];[0:a][bg]amix=inputs=2:duration=first",
		output,
	)
}

// ChangePitch shifts pitch by the given factor while keeping the sample rate.
func (l *AudioLab) ChangePitch(ctx context.Context, input, output string, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("pitch factor must be positive, got %.2f", factor)
	}
	filter := fmt.Sprintf("asetrate=44100*%.2f,aresample=44100", factor)
	return l.runner.ffmpeg(ctx, "-i", input, "-af", filter, output)
}

// AddEcho applies a single slap-back echo.
func (l *AudioLab) AddEcho(ctx context.Context, input, output string) error {
	return l.runner.ffmpeg(ctx, "-i", input, "-af", "aecho=0.8:0.9:1000:0.3", output)
}

// AddReverb approximates a small-room reverb with a short dense echo.
func (l *AudioLab) AddReverb(ctx context.Context, input, output string) error {
	return l.runner.ffmpeg(ctx, "-i", input, "-af", "aecho=0.8:0.88:60:0.4", output)
}

// CreateSong lays generated instrumentals under a recorded vocal track.
func (l *AudioLab) CreateSong(ctx context.Context, vocals, style, output string) error {
	instrumental := filepath.Join(l.runner.WorkDir(), "instrumental.wav")
	if err := l.GenerateInstrumental(ctx, style, instrumental); err != nil {
		return err
	}
	return l.Mix(ctx, instrumental, vocals, output)
}
