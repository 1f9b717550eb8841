package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Runner shells out to ffmpeg with a per-job timeout. All editing operations
// funnel through it so tests can swap the exec function for a recorder.
type Runner struct {
	ffmpegPath string
	workDir    string
	timeout    time.Duration

	run func(ctx context.Context, name string, args ...string) error
}

func NewRunner(ffmpegPath, workDir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	r := &Runner{
		ffmpegPath: ffmpegPath,
		workDir:    workDir,
		timeout:    timeout,
	}
	r.run = r.execRun
	return r
}

// SetExec overrides the exec function. Intended for tests.
func (r *Runner) SetExec(run func(ctx context.Context, name string, args ...string) error) {
	r.run = run
}

func (r *Runner) WorkDir() string { return r.workDir }

func (r *Runner) execRun(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		return fmt.Errorf("%s failed: %w: %s", name, err, detail)
	}
	return nil
}

func (r *Runner) ffmpeg(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.run(ctx, r.ffmpegPath, append([]string{"-y"}, args...)...)
}

// Async runs fn on its own goroutine and delivers exactly one completion
// callback, even if fn panics or the job context expires first.
func (r *Runner) Async(ctx context.Context, fn func(context.Context) error, done func(error)) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)

	var once sync.Once
	finish := func(err error) {
		once.Do(func() {
			cancel()
			if done != nil {
				done(err)
			}
		})
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				finish(fmt.Errorf("media job panic: %v", rec))
			}
		}()
		finish(fn(ctx))
	}()

	go func() {
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			finish(fmt.Errorf("media job timed out after %s", r.timeout))
		}
	}()
}
