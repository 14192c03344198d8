// Package ingestor turns PDF documents into indexed retrieval passages.
// Each page is split into overlapping chunks; a chunk keeps only the
// hyperlinks that appear within it.
package ingestor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/w-h-a/idc-assistant/retriever"
)

var linkPattern = regexp.MustCompile(`https?://\S+`)

type Page struct {
	Text  string
	Links []string
}

type Ingestor struct {
	options   Options
	retriever retriever.Retriever
}

// Ingest indexes every PDF in dir and returns the number of passages stored.
func (i *Ingestor) Ingest(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var passages []retriever.Passage

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		pages, err := ExtractPages(path)
		if err != nil {
			slog.WarnContext(ctx, "failed to extract pdf", "path", path, "error", err)
			continue
		}

		for _, page := range pages {
			for _, chunk := range Split(page.Text, i.options.ChunkSize, i.options.ChunkOverlap) {
				passages = append(passages, retriever.Passage{
					Text:   chunk,
					Source: entry.Name(),
					Links:  linksIn(chunk, page.Links),
				})
			}
		}
	}

	if len(passages) == 0 {
		return 0, fmt.Errorf("no pdf documents found to ingest in %s", dir)
	}

	if err := i.retriever.Index(ctx, passages); err != nil {
		return 0, err
	}

	return len(passages), nil
}

// ExtractPages reads per-page text from a PDF along with the URLs found in
// that text.
func ExtractPages(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []Page

	for n := 1; n <= r.NumPage(); n++ {
		p := r.Page(n)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, err
		}

		pages = append(pages, Page{
			Text:  text,
			Links: linkPattern.FindAllString(text, -1),
		})
	}

	return pages, nil
}

// linksIn keeps only the page links that occur inside this chunk.
func linksIn(chunk string, pageLinks []string) []string {
	var links []string
	for _, link := range pageLinks {
		if strings.Contains(chunk, link) {
			links = append(links, link)
		}
	}
	return links
}

func New(r retriever.Retriever, opts ...Option) *Ingestor {
	if r == nil {
		panic("retriever is required")
	}

	return &Ingestor{
		options:   NewOptions(opts...),
		retriever: r,
	}
}
