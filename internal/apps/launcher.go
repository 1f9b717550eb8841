package apps

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// appTargets maps spoken app names to the URL opened for them.
var appTargets = map[string]string{
	"whatsapp":   "https://web.whatsapp.com",
	"facebook":   "https://www.facebook.com",
	"instagram":  "https://www.instagram.com",
	"twitter":    "https://twitter.com",
	"youtube":    "https://www.youtube.com",
	"gmail":      "https://mail.google.com",
	"maps":       "https://maps.google.com",
	"spotify":    "https://open.spotify.com",
	"netflix":    "https://www.netflix.com",
	"telegram":   "https://web.telegram.org",
	"tiktok":     "https://www.tiktok.com",
	"messenger":  "https://www.messenger.com",
	"calendar":   "https://calendar.google.com",
	"photos":     "https://photos.google.com",
	"drive":      "https://drive.google.com",
	"github":     "https://github.com",
	"reddit":     "https://www.reddit.com",
	"wikipedia":  "https://www.wikipedia.org",
	"translate":  "https://translate.google.com",
	"calculator": "https://www.google.com/search?q=calculator",
}

// Launcher opens applications and sites with the host's URL opener.
type Launcher struct {
	opener string
	run    func(ctx context.Context, name string, args ...string) error
}

func NewLauncher() *Launcher {
	l := &Launcher{opener: defaultOpener()}
	l.run = func(ctx context.Context, name string, args ...string) error {
		if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		return nil
	}
	return l
}

func defaultOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

// SetExec overrides the exec function. Intended for tests.
func (l *Launcher) SetExec(run func(ctx context.Context, name string, args ...string) error) {
	l.run = run
}

// Open launches a known app by name. Unknown names that look like URLs are
// opened directly.
func (l *Launcher) Open(ctx context.Context, name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	target, ok := appTargets[key]
	if !ok {
		if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
			target = key
		} else {
			return fmt.Errorf("unknown app %q", name)
		}
	}
	return l.run(ctx, l.opener, target)
}

// Find returns the first known app whose name contains the partial string.
func Find(partial string) (string, bool) {
	p := strings.ToLower(strings.TrimSpace(partial))
	if p == "" {
		return "", false
	}
	for _, name := range Known() {
		if strings.Contains(name, p) {
			return name, true
		}
	}
	return "", false
}

// Known lists the launchable app names in a stable order.
func Known() []string {
	names := make([]string, 0, len(appTargets))
	for name := range appTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
