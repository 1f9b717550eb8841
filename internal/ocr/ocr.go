package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DocumentData is the structured view of a scanned page.
type DocumentData struct {
	FullText   string   `json:"full_text"`
	Lines      []string `json:"lines"`
	Paragraphs []string `json:"paragraphs"`
	WordCount  int      `json:"word_count"`
}

// ExtractedData holds the common patterns pulled from recognized text.
type ExtractedData struct {
	Emails       []string `json:"emails"`
	PhoneNumbers []string `json:"phone_numbers"`
	URLs         []string `json:"urls"`
	Dates        []string `json:"dates"`
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{8,}\d`)
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	datePattern  = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)
)

// Processor runs the tesseract CLI against local image files.
type Processor struct {
	tesseractPath string
	timeout       time.Duration

	run func(ctx context.Context, name string, args ...string) (string, error)
}

func NewProcessor(tesseractPath string) *Processor {
	p := &Processor{
		tesseractPath: tesseractPath,
		timeout:       60 * time.Second,
	}
	p.run = p.execRun
	return p
}

// SetExec overrides the exec function. Intended for tests.
func (p *Processor) SetExec(run func(ctx context.Context, name string, args ...string) (string, error)) {
	p.run = run
}

func (p *Processor) execRun(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return string(out), nil
}

// ExtractText recognizes text in one image.
func (p *Processor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// "stdout" tells tesseract to print instead of writing a sidecar file.
	out, err := p.run(ctx, p.tesseractPath, imagePath, "stdout")
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", imagePath, err)
	}
	return strings.TrimSpace(out), nil
}

// ExtractTextAll recognizes several images and joins the results.
func (p *Processor) ExtractTextAll(ctx context.Context, imagePaths []string) (string, error) {
	var parts []string
	for _, path := range imagePaths {
		text, err := p.ExtractText(ctx, path)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// ScanDocument recognizes an image and returns its structural breakdown.
func (p *Processor) ScanDocument(ctx context.Context, imagePath string) (DocumentData, error) {
	text, err := p.ExtractText(ctx, imagePath)
	if err != nil {
		return DocumentData{}, err
	}
	return AnalyzeText(text), nil
}

// ExtractData recognizes an image and pulls out emails, phones, URLs, dates.
func (p *Processor) ExtractData(ctx context.Context, imagePath string) (ExtractedData, error) {
	text, err := p.ExtractText(ctx, imagePath)
	if err != nil {
		return ExtractedData{}, err
	}
	return ExtractPatterns(text), nil
}

// AnalyzeText splits recognized text into lines and paragraphs.
func AnalyzeText(text string) DocumentData {
	return DocumentData{
		FullText:   text,
		Lines:      strings.Split(text, "\n"),
		Paragraphs: strings.Split(text, "\n\n"),
		WordCount:  len(strings.Fields(text)),
	}
}

// ExtractPatterns finds structured data inside free text.
func ExtractPatterns(text string) ExtractedData {
	return ExtractedData{
		Emails:       emailPattern.FindAllString(text, -1),
		PhoneNumbers: phonePattern.FindAllString(text, -1),
		URLs:         urlPattern.FindAllString(text, -1),
		Dates:        datePattern.FindAllString(text, -1),
	}
}
