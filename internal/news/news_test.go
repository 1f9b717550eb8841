package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kestrelworks/kestrel/internal/memory"
)

const sampleRSS = `<?xml version="1.0"?>
<rss><channel>
<title>Feed Title</title>
<item><title>First headline</title><description>Something happened</description><link>https://example.com/1</link><pubDate>Mon, 31 Aug 2026 08:00:00 GMT</pubDate></item>
<item><title><![CDATA[Second headline]]></title><link>https://example.com/2</link></item>
<item><description>no title here</description></item>
</channel></rss>`

func TestParseRSS(t *testing.T) {
	articles := ParseRSS(sampleRSS)
	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2 (titleless item skipped)", len(articles))
	}
	if articles[0].Title != "First headline" || articles[0].URL != "https://example.com/1" {
		t.Fatalf("articles[0] = %+v", articles[0])
	}
	if articles[1].Title != "Second headline" {
		t.Fatalf("articles[1].Title = %q, want CDATA stripped", articles[1].Title)
	}
	if articles[0].Source != "RSS Feed" {
		t.Fatalf("Source = %q", articles[0].Source)
	}
}

func TestTopHeadlinesUsesAPIWhenKeyed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"articles": []map[string]any{
				{"title": "API headline", "source": map[string]string{"name": "Wire"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "")
	c.SetBaseURL(srv.URL)

	articles, err := c.TopHeadlines(context.Background(), "technology")
	if err != nil {
		t.Fatalf("TopHeadlines() error = %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "API headline" || articles[0].Source != "Wire" {
		t.Fatalf("articles = %+v", articles)
	}
	if !strings.Contains(gotPath, "category=technology") {
		t.Fatalf("request = %q, want category param", gotPath)
	}
}

func TestTopHeadlinesFallsBackToRSSOnAPIFailure(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer api.Close()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer feed.Close()

	c := NewClient("bad-key", feed.URL)
	c.SetBaseURL(api.URL)

	articles, err := c.TopHeadlines(context.Background(), "general")
	if err != nil {
		t.Fatalf("TopHeadlines() error = %v", err)
	}
	if len(articles) == 0 || articles[0].Source != "RSS Feed" {
		t.Fatalf("articles = %+v, want RSS fallback", articles)
	}
}

func TestSearchWithoutKeyReturnsNothing(t *testing.T) {
	c := NewClient("", "")
	articles, err := c.Search(context.Background(), "volcano")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if articles != nil {
		t.Fatalf("articles = %+v, want nil without key", articles)
	}
}

func TestHeadlinesSpokenSummary(t *testing.T) {
	if got := Headlines(nil); !strings.Contains(got, "couldn't find") {
		t.Fatalf("Headlines(empty) = %q", got)
	}
	got := Headlines([]Article{{Title: "One"}, {Title: "Two"}})
	if !strings.Contains(got, "1: One.") || !strings.Contains(got, "2: Two.") {
		t.Fatalf("Headlines() = %q", got)
	}
}

func TestPreferredCategoriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()

	if got := PreferredCategories(ctx, store); len(got) != 1 || got[0] != "general" {
		t.Fatalf("PreferredCategories(unset) = %v, want [general]", got)
	}
	if err := SetPreferredCategories(ctx, store, []string{" Technology ", "SPORTS", ""}); err != nil {
		t.Fatalf("SetPreferredCategories() error = %v", err)
	}
	got := PreferredCategories(ctx, store)
	if len(got) != 2 || got[0] != "technology" || got[1] != "sports" {
		t.Fatalf("PreferredCategories() = %v", got)
	}
	if err := SetPreferredCategories(ctx, store, []string{"  "}); err == nil {
		t.Fatal("SetPreferredCategories(blank) accepted")
	}
}

func TestPersonalizedUsesFirstPreferredCategory(t *testing.T) {
	ctx := context.Background()
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"articles": []map[string]any{{"title": "Chips are faster now"}},
		})
	}))
	defer srv.Close()

	store := memory.NewInMemoryStore()
	if err := SetPreferredCategories(ctx, store, []string{"technology"}); err != nil {
		t.Fatalf("SetPreferredCategories() error = %v", err)
	}

	c := NewClient("test-key", "")
	c.SetBaseURL(srv.URL)
	articles, err := c.Personalized(ctx, store)
	if err != nil {
		t.Fatalf("Personalized() error = %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Chips are faster now" {
		t.Fatalf("articles = %+v", articles)
	}
	if !strings.Contains(gotQuery, "category=technology") {
		t.Fatalf("query = %q, want preferred category", gotQuery)
	}
}
