package books

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// DefaultWordsPerPage matches a comfortable spoken page length.
const DefaultWordsPerPage = 300

var ErrNoBook = errors.New("no book loaded")

// ProgressStore persists per-book reading positions between sessions.
// memory.Store satisfies it.
type ProgressStore interface {
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, bool, error)
}

var whitespace = regexp.MustCompile(`\s+`)

// Reader paginates plain-text books and tracks the reading position.
type Reader struct {
	mu           sync.Mutex
	wordsPerPage int
	progress     ProgressStore

	title   string
	pages   []string
	page    int
	reading bool
	speed   float64
}

func NewReader(wordsPerPage int, progress ProgressStore) *Reader {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}
	return &Reader{
		wordsPerPage: wordsPerPage,
		progress:     progress,
		speed:        1.0,
	}
}

// LoadFile loads a plain-text book from disk.
func (r *Reader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read book: %w", err)
	}
	title := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		title = path[i+1:]
	}
	return r.LoadText(ctx, title, string(data))
}

// LoadText paginates content and restores any saved position for the title.
func (r *Reader) LoadText(ctx context.Context, title, content string) (int, error) {
	pages := splitIntoPages(content, r.wordsPerPage)
	if len(pages) == 0 {
		return 0, errors.New("book is empty")
	}

	page := 0
	if r.progress != nil {
		if v, ok, err := r.progress.Preference(ctx, progressKey(title)); err == nil && ok {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(pages) {
				page = n
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
	r.pages = pages
	r.page = page
	r.reading = false
	return len(pages), nil
}

func splitIntoPages(text string, wordsPerPage int) []string {
	words := whitespace.Split(strings.TrimSpace(text), -1)
	if len(words) == 1 && words[0] == "" {
		return nil
	}
	var pages []string
	for i := 0; i < len(words); i += wordsPerPage {
		end := i + wordsPerPage
		if end > len(words) {
			end = len(words)
		}
		pages = append(pages, strings.Join(words[i:end], " "))
	}
	return pages
}

// CurrentPage returns the text and position of the page under the cursor.
func (r *Reader) CurrentPage() (text string, page, total int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return "", 0, 0, ErrNoBook
	}
	return r.pages[r.page], r.page + 1, len(r.pages), nil
}

// NextPage advances the cursor, saturating at the last page.
func (r *Reader) NextPage(ctx context.Context) (string, error) {
	r.mu.Lock()
	if len(r.pages) == 0 {
		r.mu.Unlock()
		return "", ErrNoBook
	}
	if r.page >= len(r.pages)-1 {
		r.mu.Unlock()
		return "Last page", nil
	}
	r.page++
	status := fmt.Sprintf("Page %d", r.page+1)
	r.mu.Unlock()

	r.saveProgress(ctx)
	return status, nil
}

// PreviousPage moves the cursor back, saturating at the first page.
func (r *Reader) PreviousPage(ctx context.Context) (string, error) {
	r.mu.Lock()
	if len(r.pages) == 0 {
		r.mu.Unlock()
		return "", ErrNoBook
	}
	if r.page <= 0 {
		r.mu.Unlock()
		return "First page", nil
	}
	r.page--
	status := fmt.Sprintf("Page %d", r.page+1)
	r.mu.Unlock()

	r.saveProgress(ctx)
	return status, nil
}

// GoToPage jumps to a 1-based page number.
func (r *Reader) GoToPage(ctx context.Context, page int) (string, error) {
	r.mu.Lock()
	if len(r.pages) == 0 {
		r.mu.Unlock()
		return "", ErrNoBook
	}
	if page < 1 || page > len(r.pages) {
		r.mu.Unlock()
		return "Invalid page number", nil
	}
	r.page = page - 1
	status := fmt.Sprintf("Going to page %d", page)
	r.mu.Unlock()

	r.saveProgress(ctx)
	return status, nil
}

// AddBookmark saves the current page under a named bookmark.
func (r *Reader) AddBookmark(ctx context.Context, name string) error {
	r.mu.Lock()
	if len(r.pages) == 0 {
		r.mu.Unlock()
		return ErrNoBook
	}
	title := r.title
	page := r.page
	r.mu.Unlock()

	if r.progress == nil {
		return errors.New("no progress store")
	}
	return r.progress.SetPreference(ctx, bookmarkKey(title, name), strconv.Itoa(page))
}

// GoToBookmark moves the cursor to a named bookmark.
func (r *Reader) GoToBookmark(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	if len(r.pages) == 0 {
		r.mu.Unlock()
		return "", ErrNoBook
	}
	title := r.title
	total := len(r.pages)
	r.mu.Unlock()

	if r.progress == nil {
		return "Bookmark not found", nil
	}
	v, ok, err := r.progress.Preference(ctx, bookmarkKey(title, name))
	if err != nil {
		return "", err
	}
	page, convErr := strconv.Atoi(v)
	if !ok || convErr != nil || page < 0 || page >= total {
		return "Bookmark not found", nil
	}

	r.mu.Lock()
	r.page = page
	r.mu.Unlock()
	r.saveProgress(ctx)
	return "Going to bookmark", nil
}

// Progress describes how far into the book the cursor is.
func (r *Reader) Progress() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return "No book loaded"
	}
	pct := (r.page + 1) * 100 / len(r.pages)
	return fmt.Sprintf("Page %d of %d (%d%%)", r.page+1, len(r.pages), pct)
}

// SetSpeed adjusts the spoken reading rate by name.
func (r *Reader) SetSpeed(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "slow":
		r.speed = 0.7
	case "fast":
		r.speed = 1.3
	default:
		r.speed = 1.0
	}
	return r.speed
}

func (r *Reader) Speed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speed
}

// StartReading marks the reader active and returns the page to speak.
func (r *Reader) StartReading() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return "", ErrNoBook
	}
	r.reading = true
	return fmt.Sprintf("Reading page %d of %d. %s", r.page+1, len(r.pages), r.pages[r.page]), nil
}

// StopReading pauses and persists the position.
func (r *Reader) StopReading(ctx context.Context) {
	r.mu.Lock()
	r.reading = false
	r.mu.Unlock()
	r.saveProgress(ctx)
}

func (r *Reader) IsReading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reading
}

func (r *Reader) saveProgress(ctx context.Context) {
	r.mu.Lock()
	title := r.title
	page := r.page
	store := r.progress
	r.mu.Unlock()

	if store == nil || title == "" {
		return
	}
	// Best-effort save; a page turn still succeeds without it.
	_ = store.SetPreference(ctx, progressKey(title), strconv.Itoa(page))
}

func progressKey(title string) string {
	return "book:" + title + ":page"
}

func bookmarkKey(title, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "bookmark"
	}
	return "book:" + title + ":bookmark:" + name
}
