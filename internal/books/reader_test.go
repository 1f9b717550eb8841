package books

import (
	"context"
	"strings"
	"testing"

	"github.com/kestrelworks/kestrel/internal/memory"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func TestLoadTextPaginatesByWordCount(t *testing.T) {
	r := NewReader(300, nil)
	pages, err := r.LoadText(context.Background(), "novel.txt", words(650))
	if err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3 for 650 words at 300/page", pages)
	}

	text, page, total, err := r.CurrentPage()
	if err != nil {
		t.Fatalf("CurrentPage() error = %v", err)
	}
	if page != 1 || total != 3 {
		t.Fatalf("position = %d/%d, want 1/3", page, total)
	}
	if got := len(strings.Fields(text)); got != 300 {
		t.Fatalf("first page words = %d, want 300", got)
	}
}

func TestLoadTextRejectsEmptyBook(t *testing.T) {
	r := NewReader(300, nil)
	if _, err := r.LoadText(context.Background(), "empty.txt", "   "); err == nil {
		t.Fatalf("LoadText(empty) error = nil, want error")
	}
}

func TestPageNavigationSaturates(t *testing.T) {
	ctx := context.Background()
	r := NewReader(10, nil)
	if _, err := r.LoadText(ctx, "short.txt", words(25)); err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}

	if status, _ := r.PreviousPage(ctx); status != "First page" {
		t.Fatalf("PreviousPage() at start = %q, want First page", status)
	}
	if status, _ := r.NextPage(ctx); status != "Page 2" {
		t.Fatalf("NextPage() = %q, want Page 2", status)
	}
	if status, _ := r.NextPage(ctx); status != "Page 3" {
		t.Fatalf("NextPage() = %q, want Page 3", status)
	}
	if status, _ := r.NextPage(ctx); status != "Last page" {
		t.Fatalf("NextPage() at end = %q, want Last page", status)
	}

	if status, _ := r.GoToPage(ctx, 99); status != "Invalid page number" {
		t.Fatalf("GoToPage(99) = %q, want Invalid page number", status)
	}
	if status, _ := r.GoToPage(ctx, 1); status != "Going to page 1" {
		t.Fatalf("GoToPage(1) = %q", status)
	}
}

func TestProgressRestoredAcrossLoads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()

	r := NewReader(10, store)
	if _, err := r.LoadText(ctx, "saga.txt", words(50)); err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}
	if _, err := r.GoToPage(ctx, 4); err != nil {
		t.Fatalf("GoToPage() error = %v", err)
	}

	fresh := NewReader(10, store)
	if _, err := fresh.LoadText(ctx, "saga.txt", words(50)); err != nil {
		t.Fatalf("LoadText() reload error = %v", err)
	}
	_, page, _, err := fresh.CurrentPage()
	if err != nil {
		t.Fatalf("CurrentPage() error = %v", err)
	}
	if page != 4 {
		t.Fatalf("restored page = %d, want 4", page)
	}
}

func TestBookmarksRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()

	r := NewReader(10, store)
	if _, err := r.LoadText(ctx, "saga.txt", words(50)); err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}
	if _, err := r.GoToPage(ctx, 3); err != nil {
		t.Fatalf("GoToPage() error = %v", err)
	}
	if err := r.AddBookmark(ctx, "chapter two"); err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}

	if _, err := r.GoToPage(ctx, 5); err != nil {
		t.Fatalf("GoToPage() error = %v", err)
	}
	status, err := r.GoToBookmark(ctx, "chapter two")
	if err != nil || status != "Going to bookmark" {
		t.Fatalf("GoToBookmark() = %q, %v", status, err)
	}
	_, page, _, err := r.CurrentPage()
	if err != nil || page != 3 {
		t.Fatalf("page after bookmark = %d, %v, want 3", page, err)
	}

	if status, _ := r.GoToBookmark(ctx, "nowhere"); status != "Bookmark not found" {
		t.Fatalf("GoToBookmark(missing) = %q", status)
	}

	empty := NewReader(10, store)
	if err := empty.AddBookmark(ctx, "x"); err != ErrNoBook {
		t.Fatalf("AddBookmark() without book error = %v, want ErrNoBook", err)
	}
}

func TestNoBookLoaded(t *testing.T) {
	r := NewReader(0, nil)
	if _, _, _, err := r.CurrentPage(); err != ErrNoBook {
		t.Fatalf("CurrentPage() error = %v, want ErrNoBook", err)
	}
	if _, err := r.NextPage(context.Background()); err != ErrNoBook {
		t.Fatalf("NextPage() error = %v, want ErrNoBook", err)
	}
	if got := r.Progress(); got != "No book loaded" {
		t.Fatalf("Progress() = %q", got)
	}
}

func TestSetSpeed(t *testing.T) {
	r := NewReader(0, nil)
	if got := r.SetSpeed("slow"); got != 0.7 {
		t.Fatalf("SetSpeed(slow) = %v, want 0.7", got)
	}
	if got := r.SetSpeed("fast"); got != 1.3 {
		t.Fatalf("SetSpeed(fast) = %v, want 1.3", got)
	}
	if got := r.SetSpeed("whatever"); got != 1.0 {
		t.Fatalf("SetSpeed(default) = %v, want 1.0", got)
	}
}
