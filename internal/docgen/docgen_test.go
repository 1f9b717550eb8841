package docgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderMarkdownHeadingsAndLists(t *testing.T) {
	out := string(RenderMarkdown("# Title\n\n- first\n- second\n"))
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "Title") {
		t.Fatalf("output missing heading: %q", out)
	}
	if !strings.Contains(out, "<li>first</li>") {
		t.Fatalf("output missing list item: %q", out)
	}
}

func TestWriteDocumentPrependsTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	if err := WriteDocument("plain paragraph", path, "My Doc"); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "My Doc") {
		t.Fatalf("output missing title: %q", string(data))
	}
}

func TestInvoiceTotalAndMarkdown(t *testing.T) {
	inv := Invoice{
		Number:     "2026-014",
		Date:       "2026-08-31",
		ClientName: "Acme",
		Items: []InvoiceItem{
			{Description: "Editing", Price: 100, Quantity: 2},
			{Description: "Narration", Price: 50.5, Quantity: 1},
		},
	}
	if got := inv.Total(); got != 250.5 {
		t.Fatalf("Total() = %v, want 250.5", got)
	}
	md := inv.Markdown()
	if !strings.Contains(md, "| Editing | $100.00 | 2 | $200.00 |") {
		t.Fatalf("Markdown missing line item: %q", md)
	}
	if !strings.Contains(md, "Total: $250.50") {
		t.Fatalf("Markdown missing total: %q", md)
	}
}

func TestResumeMarkdownSections(t *testing.T) {
	r := Resume{
		Name:    "Jordan Example",
		Email:   "jordan@example.com",
		Phone:   "555-0101",
		Summary: "Editor and narrator.",
		Experience: []Experience{
			{Title: "Editor", Company: "Studio", Duration: "2020-2024", Description: "Cut things."},
		},
		Education: []Education{{Degree: "BA", Institution: "State", Year: "2019"}},
		Skills:    []string{"editing", "narration"},
	}
	md := r.Markdown()
	for _, want := range []string{"## Summary", "## Experience", "## Education", "## Skills", "Editor at Studio"} {
		if !strings.Contains(md, want) {
			t.Fatalf("Markdown missing %q: %q", want, md)
		}
	}
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(context.Context, string) (string, error) {
	return f.text, f.err
}

func TestDocumentFromImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.html")

	if err := DocumentFromImage(context.Background(), fakeExtractor{text: "scanned text"}, "in.png", path); err != nil {
		t.Fatalf("DocumentFromImage() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "scanned text") {
		t.Fatalf("output missing recognized text: %q", string(data))
	}

	if err := DocumentFromImage(context.Background(), fakeExtractor{text: "  "}, "in.png", path); err == nil {
		t.Fatalf("DocumentFromImage(blank) error = nil, want error")
	}
	if err := DocumentFromImage(context.Background(), fakeExtractor{err: errors.New("ocr down")}, "in.png", path); err == nil {
		t.Fatalf("DocumentFromImage(failure) error = nil, want error")
	}
}
