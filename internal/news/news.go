package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kestrelworks/kestrel/internal/brain"
)

const maxArticles = 10

// Article is one news item from either NewsAPI or an RSS feed.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Client fetches headlines from NewsAPI when a key is configured and falls
// back to a public RSS feed otherwise.
type Client struct {
	apiKey  string
	feedURL string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, feedURL string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		feedURL: strings.TrimSpace(feedURL),
		baseURL: "https://newsapi.org",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetBaseURL overrides the NewsAPI endpoint. Intended for tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

const preferredCategoriesKey = "news:preferred_categories"

// PreferenceStore is the slice of the memory store the personalized feed
// reads categories from. memory.Store satisfies it.
type PreferenceStore interface {
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key string) (string, bool, error)
}

// SetPreferredCategories saves the categories the personalized feed draws
// from, replacing any previous choice.
func SetPreferredCategories(ctx context.Context, store PreferenceStore, categories []string) error {
	cleaned := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("no categories given")
	}
	return store.SetPreference(ctx, preferredCategoriesKey, strings.Join(cleaned, ","))
}

// PreferredCategories reads the saved categories, defaulting to general.
func PreferredCategories(ctx context.Context, store PreferenceStore) []string {
	v, ok, err := store.Preference(ctx, preferredCategoriesKey)
	if err != nil || !ok || strings.TrimSpace(v) == "" {
		return []string{"general"}
	}
	return strings.Split(v, ",")
}

// Personalized returns headlines for the user's first preferred category.
func (c *Client) Personalized(ctx context.Context, store PreferenceStore) ([]Article, error) {
	return c.TopHeadlines(ctx, PreferredCategories(ctx, store)[0])
}

// TopHeadlines returns up to ten headlines for a category. API trouble of any
// kind degrades to the RSS feed rather than failing the command.
func (c *Client) TopHeadlines(ctx context.Context, category string) ([]Article, error) {
	if c.apiKey == "" {
		return c.fetchRSS(ctx)
	}
	if strings.TrimSpace(category) == "" {
		category = "general"
	}

	u := fmt.Sprintf("%s/v2/top-headlines?country=us&category=%s&apiKey=%s",
		c.baseURL, url.QueryEscape(category), url.QueryEscape(c.apiKey))
	articles, err := c.fetchAPI(ctx, u)
	if err != nil {
		return c.fetchRSS(ctx)
	}
	return articles, nil
}

// Search queries NewsAPI's everything endpoint. Without a key there is
// nothing to search.
func (c *Client) Search(ctx context.Context, query string) ([]Article, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	u := fmt.Sprintf("%s/v2/everything?q=%s&sortBy=publishedAt&apiKey=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))
	return c.fetchAPI(ctx, u)
}

type apiResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		URLToImage  string `json:"urlToImage"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Client) fetchAPI(ctx context.Context, rawURL string) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news api status %d", res.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	out := make([]Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if len(out) >= maxArticles {
			break
		}
		out = append(out, Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			ImageURL:    a.URLToImage,
		})
	}
	return out, nil
}

func (c *Client) fetchRSS(ctx context.Context) ([]Article, error) {
	if c.feedURL == "" {
		return nil, fmt.Errorf("no news source configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read rss: %w", err)
	}
	return ParseRSS(string(body)), nil
}

// ParseRSS extracts items with a tolerant tag split instead of a strict XML
// decode. Feeds that are not well-formed still yield their headlines.
func ParseRSS(xml string) []Article {
	var articles []Article
	items := strings.Split(xml, "<item>")
	for i := 1; i < len(items) && len(articles) < maxArticles; i++ {
		item := items[i]
		title := extractTag(item, "title")
		if title == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       title,
			Description: extractTag(item, "description"),
			URL:         extractTag(item, "link"),
			Source:      "RSS Feed",
			PublishedAt: extractTag(item, "pubDate"),
		})
	}
	return articles
}

func extractTag(xml, tag string) string {
	start := strings.Index(xml, "<"+tag+">")
	if start < 0 {
		return ""
	}
	start += len(tag) + 2
	end := strings.Index(xml, "</"+tag+">")
	if end <= start {
		return ""
	}
	value := strings.TrimSpace(xml[start:end])
	value = strings.TrimPrefix(value, "<![CDATA[")
	value = strings.TrimSuffix(value, "]]>")
	return strings.TrimSpace(value)
}

// TrendingTopics returns the static topic list spoken for "what's trending".
func TrendingTopics() []string {
	return []string{"Technology", "Politics", "Sports", "Entertainment", "Science"}
}

// Summarize asks the language model for a two sentence article summary.
func Summarize(ctx context.Context, adapter brain.Adapter, a Article) (string, error) {
	res, err := adapter.Reply(ctx, brain.Request{
		Input: fmt.Sprintf("Summarize this news in 2 sentences: %s. %s", a.Title, a.Description),
	})
	if err != nil {
		return "", fmt.Errorf("summarize article: %w", err)
	}
	return res.Text, nil
}

// Headlines renders articles as a single spoken summary line per article.
func Headlines(articles []Article) string {
	if len(articles) == 0 {
		return "I couldn't find any news right now."
	}
	var b strings.Builder
	b.WriteString("Here are the top headlines. ")
	for i, a := range articles {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "%d: %s. ", i+1, a.Title)
	}
	return strings.TrimSpace(b.String())
}
