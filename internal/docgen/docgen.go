package docgen

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// TextExtractor recognizes text in an image. ocr.Processor satisfies it.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// RenderMarkdown converts markdown content into a standalone HTML fragment.
func RenderMarkdown(content string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(content), p, renderer)
}

// WriteDocument renders markdown (with an optional centered title) to a file.
func WriteDocument(content, outputPath, title string) error {
	md := content
	if strings.TrimSpace(title) != "" {
		md = "# " + strings.TrimSpace(title) + "\n\n" + content
	}
	if err := os.WriteFile(outputPath, RenderMarkdown(md), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Experience is one work history entry on a resume.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education is one study entry on a resume.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Resume holds everything needed to generate a CV document.
type Resume struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Address    string       `json:"address"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`
}

// Markdown lays the resume out section by section.
func (r Resume) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s\n\n", r.Email, r.Phone)
	fmt.Fprintf(&b, "%s\n\n", r.Address)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", r.Summary)

	b.WriteString("## Experience\n\n")
	for _, exp := range r.Experience {
		fmt.Fprintf(&b, "**%s at %s** (%s)\n\n%s\n\n", exp.Title, exp.Company, exp.Duration, exp.Description)
	}

	b.WriteString("## Education\n\n")
	for _, edu := range r.Education {
		fmt.Fprintf(&b, "- %s, %s (%s)\n", edu.Degree, edu.Institution, edu.Year)
	}

	b.WriteString("\n## Skills\n\n")
	b.WriteString(strings.Join(r.Skills, ", "))
	b.WriteString("\n")
	return b.String()
}

// CreateResume writes the resume as an HTML document titled with the name.
func CreateResume(r Resume, outputPath string) error {
	return WriteDocument(r.Markdown(), outputPath, r.Name)
}

// InvoiceItem is one line on an invoice.
type InvoiceItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Invoice holds billing details for invoice generation.
type Invoice struct {
	Number        string        `json:"number"`
	Date          string        `json:"date"`
	ClientName    string        `json:"client_name"`
	ClientAddress string        `json:"client_address"`
	Items         []InvoiceItem `json:"items"`
}

// Total sums all line items.
func (inv Invoice) Total() float64 {
	total := 0.0
	for _, item := range inv.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Markdown lays the invoice out with a line-item table.
func (inv Invoice) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #: %s\n\nDate: %s\n\n", inv.Number, inv.Date)
	fmt.Fprintf(&b, "**Bill To:** %s, %s\n\n", inv.ClientName, inv.ClientAddress)

	b.WriteString("| Item | Price | Qty | Amount |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, item := range inv.Items {
		fmt.Fprintf(&b, "| %s | $%.2f | %d | $%.2f |\n",
			item.Description, item.Price, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\n**Total: $%.2f**\n", inv.Total())
	return b.String()
}

// CreateInvoice writes the invoice as an HTML document.
func CreateInvoice(inv Invoice, outputPath string) error {
	return WriteDocument(inv.Markdown(), outputPath, "Invoice")
}

// DocumentFromImage recognizes an image's text and writes it as a document.
func DocumentFromImage(ctx context.Context, extractor TextExtractor, imagePath, outputPath string) error {
	text, err := extractor.ExtractText(ctx, imagePath)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text found in %s", imagePath)
	}
	return WriteDocument(text, outputPath, "")
}
