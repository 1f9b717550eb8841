package media

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type execRecorder struct {
	calls [][]string
	err   error
}

func (r *execRecorder) run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func newTestRunner(t *testing.T, rec *execRecorder) *Runner {
	t.Helper()
	r := NewRunner("ffmpeg", t.TempDir(), time.Minute)
	r.SetExec(rec.run)
	return r
}

func TestTrimBuildsCopyCommand(t *testing.T) {
	rec := &execRecorder{}
	e := NewEditor(newTestRunner(t, rec))

	if err := e.Trim(context.Background(), "in.mp4", "out.mp4", "00:00:05", "00:00:10"); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(rec.calls))
	}
	got := strings.Join(rec.calls[0], " ")
	want := "ffmpeg -y -i in.mp4 -ss 00:00:05 -t 00:00:10 -c copy out.mp4"
	if got != want {
		t.Fatalf("command = %q, want %q", got, want)
	}
}

func TestMergeWritesConcatList(t *testing.T) {
	rec := &execRecorder{}
	runner := newTestRunner(t, rec)
	e := NewEditor(runner)

	var listPath string
	runner.SetExec(func(ctx context.Context, name string, args ...string) error {
		for i, a := range args {
			if a == "-i" && i+1 < len(args) {
				listPath = args[i+1]
			}
		}
		if listPath == "" {
			t.Fatalf("no -i argument in %v", args)
		}
		data, err := os.ReadFile(listPath)
		if err != nil {
			t.Fatalf("read concat list: %v", err)
		}
		if string(data) != "file 'a.mp4'\nfile 'b.mp4'\n" {
			t.Fatalf("concat list = %q", string(data))
		}
		return nil
	})

	if err := e.Merge(context.Background(), []string{"a.mp4", "b.mp4"}, "out.mp4"); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if _, err := os.Stat(listPath); !os.IsNotExist(err) {
		t.Fatalf("concat list not cleaned up: %v", err)
	}
}

func TestMergeRejectsSingleInput(t *testing.T) {
	e := NewEditor(newTestRunner(t, &execRecorder{}))
	if err := e.Merge(context.Background(), []string{"a.mp4"}, "out.mp4"); err == nil {
		t.Fatalf("Merge() error = nil, want error for single input")
	}
}

func TestChangeSpeedValidatesFactor(t *testing.T) {
	rec := &execRecorder{}
	e := NewEditor(newTestRunner(t, rec))

	if err := e.ChangeSpeed(context.Background(), "in.mp4", "out.mp4", 3.0); err == nil {
		t.Fatalf("ChangeSpeed(3.0) error = nil, want range error")
	}
	if err := e.ChangeSpeed(context.Background(), "in.mp4", "out.mp4", 2.0); err != nil {
		t.Fatalf("ChangeSpeed(2.0) error = %v", err)
	}
	got := strings.Join(rec.calls[0], " ")
	if !strings.Contains(got, "setpts=PTS/2.00") || !strings.Contains(got, "atempo=2.00") {
		t.Fatalf("command = %q, want setpts and atempo filters", got)
	}
}

func TestStabilizeRunsTwoPasses(t *testing.T) {
	rec := &execRecorder{}
	s := NewStabilizer(newTestRunner(t, rec))

	if err := s.Stabilize(context.Background(), "in.mp4", "out.mp4"); err != nil {
		t.Fatalf("Stabilize() error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("calls = %d, want detect and transform passes", len(rec.calls))
	}
	if !strings.Contains(strings.Join(rec.calls[0], " "), "vidstabdetect") {
		t.Fatalf("first pass = %v, want vidstabdetect", rec.calls[0])
	}
	if !strings.Contains(strings.Join(rec.calls[1], " "), "vidstabtransform") {
		t.Fatalf("second pass = %v, want vidstabtransform", rec.calls[1])
	}
}

func TestAudioLabPitchAndChords(t *testing.T) {
	rec := &execRecorder{}
	l := NewAudioLab(newTestRunner(t, rec))

	if err := l.ChangePitch(context.Background(), "in.wav", "out.wav", 0); err == nil {
		t.Fatalf("ChangePitch(0) error = nil, want error")
	}
	if err := l.GenerateInstrumental(context.Background(), "sad", "out.wav"); err != nil {
		t.Fatalf("GenerateInstrumental() error = %v", err)
	}
	got := strings.Join(rec.calls[0], " ")
	if !strings.Contains(got, "sine=frequency=622") {
		t.Fatalf("command = %q, want minor-chord frequency for sad", got)
	}
}

func TestAsyncCallsDoneExactlyOnceOnFailure(t *testing.T) {
	rec := &execRecorder{err: errors.New("boom")}
	runner := newTestRunner(t, rec)
	e := NewEditor(runner)

	var count int32
	done := make(chan error, 2)
	runner.Async(context.Background(), func(ctx context.Context) error {
		return e.Denoise(ctx, "in.mp4", "out.mp4")
	}, func(err error) {
		atomic.AddInt32(&count, 1)
		done <- err
	})

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("done(nil), want failure")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("done callback not delivered in time")
	}

	// Give a second (erroneous) callback a chance to land.
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 1 {
		t.Fatalf("done called %d times, want exactly once", n)
	}
}

func TestAsyncTimesOut(t *testing.T) {
	runner := NewRunner("ffmpeg", t.TempDir(), 20*time.Millisecond)
	runner.SetExec(func(ctx context.Context, name string, args ...string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan error, 1)
	runner.Async(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("done(nil), want timeout error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout callback not delivered")
	}
}

func TestRotateUsesTransposeFilters(t *testing.T) {
	rec := &execRecorder{}
	e := NewEditor(newTestRunner(t, rec))

	if err := e.Rotate(context.Background(), "in.jpg", "out.jpg", 90); err != nil {
		t.Fatalf("Rotate(90) error = %v", err)
	}
	if err := e.Rotate(context.Background(), "in.jpg", "out.jpg", 180); err != nil {
		t.Fatalf("Rotate(180) error = %v", err)
	}
	first := strings.Join(rec.calls[0], " ")
	second := strings.Join(rec.calls[1], " ")
	if !strings.Contains(first, "-vf transpose=1 ") {
		t.Fatalf("rotate 90 command = %q", first)
	}
	if !strings.Contains(second, "transpose=1,transpose=1") {
		t.Fatalf("rotate 180 command = %q", second)
	}
	if err := e.Rotate(context.Background(), "in.jpg", "out.jpg", 45); err == nil {
		t.Fatal("Rotate(45) accepted a non-right angle")
	}
}

func TestCropBuildsFilter(t *testing.T) {
	rec := &execRecorder{}
	e := NewEditor(newTestRunner(t, rec))

	if err := e.Crop(context.Background(), "in.jpg", "out.jpg", 300, 200, 10, 20); err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	got := strings.Join(rec.calls[0], " ")
	if !strings.Contains(got, "crop=300:200:10:20") {
		t.Fatalf("crop command = %q", got)
	}
	if err := e.Crop(context.Background(), "in.jpg", "out.jpg", 0, 200, 0, 0); err == nil {
		t.Fatal("Crop() accepted a zero width")
	}
}

func TestApplyFilterByName(t *testing.T) {
	rec := &execRecorder{}
	e := NewEditor(newTestRunner(t, rec))

	for _, name := range FilterNames() {
		if err := e.ApplyFilter(context.Background(), "in.jpg", "out.jpg", name); err != nil {
			t.Fatalf("ApplyFilter(%q) error = %v", name, err)
		}
	}
	got := strings.Join(rec.calls[0], " ")
	if !strings.Contains(got, "hue=s=0") {
		t.Fatalf("grayscale command = %q", got)
	}
	if err := e.ApplyFilter(context.Background(), "in.jpg", "out.jpg", "vaporwave"); err == nil {
		t.Fatal("ApplyFilter() accepted an unknown filter")
	}
}

func TestMemeCaptionFilter(t *testing.T) {
	rec := &execRecorder{}
	m := NewMemeMaker(newTestRunner(t, rec))

	if err := m.CaptionImage(context.Background(), "in.jpg", "top text", "bottom", "out.jpg"); err != nil {
		t.Fatalf("CaptionImage() error = %v", err)
	}
	got := strings.Join(rec.calls[0], " ")
	if !strings.Contains(got, "TOP TEXT") || !strings.Contains(got, "BOTTOM") {
		t.Fatalf("command = %q, want uppercased captions", got)
	}
}
