// internal/extract/extract.go
package extract

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/browserctl/internal/browser"
)

// NoContent is reported when neither readability nor the fallback found
// enough text.
const NoContent = "(Could not extract content)"

// minFallbackLength is the shortest trimmed fallback that counts as content.
const minFallbackLength = 100

// boilerplate is removed from the document before the fallback looks for the
// main region.
const boilerplate = "script, style, noscript, nav, header, footer, aside"

// mainRegion selects the most likely content container.
const mainRegion = "main, article, [role='main'], .content, #content"

// Article is the readable form of a page.
type Article struct {
	URL      string
	Title    string
	Markdown string
	// Readable is false when the fallback produced the content.
	Readable bool
}

// Extractor turns raw page HTML into Markdown.
type Extractor struct {
	conv   *md.Converter
	logger *zap.Logger
}

// New returns an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{conv: newConverter(), logger: logger.Named("extract")}
}

// Markdown converts an HTML fragment to cleaned Markdown.
func (e *Extractor) Markdown(fragment string) (string, error) {
	out, err := e.conv.ConvertString(fragment)
	if err != nil {
		return "", browser.Wrap(browser.ErrExtraction, fmt.Errorf("converting to markdown: %w", err))
	}
	return cleanMarkdown(out), nil
}

// Content extracts the article from rawHTML loaded from pageURL. Readability
// is tried first; the fallback strips boilerplate and converts the main
// region, or reports NoContent when that region is too short.
func (e *Extractor) Content(rawHTML, pageURL string) (Article, error) {
	art := Article{URL: pageURL}

	if title, content, ok := e.readable(rawHTML, pageURL); ok {
		markdown, err := e.Markdown(content)
		if err != nil {
			return Article{}, err
		}
		art.Title, art.Markdown, art.Readable = title, markdown, true
		return art, nil
	}

	doc, root, err := parseDocument(rawHTML)
	if err != nil {
		return Article{}, err
	}
	art.Title = documentTitle(root)

	region := fallbackRegion(doc)
	inner, err := region.Html()
	if err != nil {
		return Article{}, browser.Wrap(browser.ErrExtraction, fmt.Errorf("serializing main region: %w", err))
	}
	if len(strings.TrimSpace(inner)) <= minFallbackLength {
		art.Markdown = NoContent
		return art, nil
	}
	art.Markdown, err = e.Markdown(inner)
	if err != nil {
		return Article{}, err
	}
	return art, nil
}

// Summary is the bounded content attached to a search result: readable
// Markdown, or the fallback region's plain text, cut to limit characters.
func (e *Extractor) Summary(rawHTML, pageURL string, limit int) (string, error) {
	if _, content, ok := e.readable(rawHTML, pageURL); ok {
		markdown, err := e.Markdown(content)
		if err != nil {
			return "", err
		}
		return truncate(markdown, limit), nil
	}

	doc, _, err := parseDocument(rawHTML)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(fallbackRegion(doc).Text())
	if len(text) <= minFallbackLength {
		return NoContent, nil
	}
	return truncate(text, limit), nil
}

// readable runs readability over the document. ok is false when it found no
// article body.
func (e *Extractor) readable(rawHTML, pageURL string) (title, content string, ok bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		e.logger.Debug("Unparseable page URL, skipping readability.", zap.String("url", pageURL), zap.Error(err))
		return "", "", false
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		e.logger.Debug("Readability failed, using fallback.", zap.String("url", pageURL), zap.Error(err))
		return "", "", false
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", "", false
	}
	return article.Title, article.Content, true
}

func parseDocument(rawHTML string) (*goquery.Document, *html.Node, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, nil, browser.Wrap(browser.ErrExtraction, fmt.Errorf("parsing html: %w", err))
	}
	return goquery.NewDocumentFromNode(root), root, nil
}

// fallbackRegion removes boilerplate and returns the main region, or body.
func fallbackRegion(doc *goquery.Document) *goquery.Selection {
	doc.Find(boilerplate).Remove()
	if main := doc.Find(mainRegion).First(); main.Length() > 0 {
		return main
	}
	return doc.Find("body").First()
}

// documentTitle returns the text of the first <title> outside of SVG content,
// as document.title does.
func documentTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Svg {
		return ""
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(b.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := documentTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
