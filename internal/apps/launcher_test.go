package apps

import (
	"context"
	"strings"
	"testing"
)

func TestLauncherOpenKnownApp(t *testing.T) {
	l := NewLauncher()
	var gotName string
	var gotArgs []string
	l.SetExec(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := l.Open(context.Background(), "YouTube"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if gotName != l.opener {
		t.Fatalf("opener = %q, want %q", gotName, l.opener)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "https://www.youtube.com" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestLauncherOpenURL(t *testing.T) {
	l := NewLauncher()
	var gotArgs []string
	l.SetExec(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return nil
	})

	if err := l.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "https://example.com" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestLauncherOpenUnknown(t *testing.T) {
	l := NewLauncher()
	l.SetExec(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("exec should not run for unknown app")
		return nil
	})
	if err := l.Open(context.Background(), "definitely not an app"); err == nil {
		t.Fatal("Open() expected error for unknown app")
	}
}

func TestFind(t *testing.T) {
	name, ok := Find("tube")
	if !ok || name != "youtube" {
		t.Fatalf("Find(tube) = %q, %v", name, ok)
	}
	if _, ok := Find("zzz"); ok {
		t.Fatal("Find(zzz) should not match")
	}
	if _, ok := Find(""); ok {
		t.Fatal("Find(empty) should not match")
	}
}

func TestKnownSorted(t *testing.T) {
	names := Known()
	if len(names) == 0 {
		t.Fatal("Known() is empty")
	}
	for i := 1; i < len(names); i++ {
		if strings.Compare(names[i-1], names[i]) > 0 {
			t.Fatalf("Known() not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
}
