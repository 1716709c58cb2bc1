// internal/search/search.go
package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/config"
)

const (
	// resultSelector matches one organic result block.
	resultSelector = "div.MjjYud"
	// resultsWait bounds the wait for result blocks; a page without them
	// simply yields no results.
	resultsWait = 5 * time.Second
	// pageStep is how far the start offset advances per results page.
	pageStep = 10

	defaultResultsLoad = 15 * time.Second
	defaultResultFetch = 10 * time.Second
)

// ErrorFetchingContent is attached to a result whose page could not be read.
const ErrorFetchingContent = "(Error fetching content)"

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Snippet string  `json:"snippet"`
	Content *string `json:"content,omitempty"`
}

// Page is the subset of a browser tab the searcher drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	EvaluateInto(ctx context.Context, expression string, res any) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	DocumentHTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

// Summarizer reduces a fetched page to bounded readable text.
type Summarizer interface {
	Summary(rawHTML, pageURL string, limit int) (string, error)
}

// Searcher runs Google searches in a browser tab.
type Searcher struct {
	page        Page
	summarizer  Summarizer
	cfg         config.SearchConfig
	resultsLoad time.Duration
	resultFetch time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// New builds a Searcher. cfg.ResultsLoad bounds each results page load and
// cfg.ResultFetch each result page loaded for content.
func New(page Page, summarizer Summarizer, cfg config.SearchConfig, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.PageInterval > 0 {
		limit = rate.Every(cfg.PageInterval)
	}
	resultsLoad, resultFetch := cfg.ResultsLoad, cfg.ResultFetch
	if resultsLoad <= 0 {
		resultsLoad = defaultResultsLoad
	}
	if resultFetch <= 0 {
		resultFetch = defaultResultFetch
	}
	return &Searcher{
		page:        page,
		summarizer:  summarizer,
		cfg:         cfg,
		resultsLoad: resultsLoad,
		resultFetch: resultFetch,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.Named("search"),
	}
}

// URL returns the results page address for query at offset start.
func URL(query string, start int) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query) + "&start=" + strconv.Itoa(start)
}

// Search collects up to limit unique results for query, walking result pages
// until enough are found, a page comes back empty, or the offset reaches the
// configured maximum. With withContent, each result gets a readable summary of
// its page; failures there are reported per result.
func (s *Searcher) Search(ctx context.Context, query string, limit int, withContent bool) ([]Result, error) {
	if query == "" {
		return nil, browser.InvalidArgument("Search query is required")
	}
	if limit < 1 {
		return nil, browser.InvalidArgument("Invalid number of results")
	}

	results := make([]Result, 0, limit)
	seen := make(map[string]struct{})

	for start := 0; len(results) < limit; {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		batch, err := s.resultsPage(ctx, query, start)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Results page read.", zap.Int("start", start), zap.Int("count", len(batch)))
		if len(batch) == 0 {
			break
		}
		for _, r := range batch {
			if len(results) >= limit {
				break
			}
			if _, dup := seen[r.Link]; dup {
				continue
			}
			seen[r.Link] = struct{}{}
			results = append(results, r)
		}

		start += pageStep
		if start >= s.cfg.MaxStart {
			break
		}
	}

	if withContent {
		for i := range results {
			content := s.fetchContent(ctx, results[i].Link)
			results[i].Content = &content
		}
	}
	return results, nil
}

func (s *Searcher) resultsPage(ctx context.Context, query string, start int) ([]Result, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.resultsLoad)
	defer cancel()
	if err := s.page.Navigate(navCtx, URL(query, start)); err != nil {
		return nil, err
	}

	// Missing results are not an error: the extraction below returns none.
	if err := s.page.WaitFor(ctx, resultSelector, resultsWait); err != nil {
		s.logger.Debug("No result blocks appeared.", zap.Error(err))
	}

	var batch []Result
	if err := s.page.EvaluateInto(ctx, extractResultsJS, &batch); err != nil {
		return nil, fmt.Errorf("extracting results: %w", err)
	}
	return batch, nil
}

// fetchContent loads link and summarizes it. Load errors are ignored, as the
// page may still be usable after the load bound passes.
func (s *Searcher) fetchContent(ctx context.Context, link string) string {
	loadCtx, cancel := context.WithTimeout(ctx, s.resultFetch)
	if err := s.page.Navigate(loadCtx, link); err != nil {
		s.logger.Debug("Result page did not finish loading.", zap.String("link", link), zap.Error(err))
	}
	cancel()

	html, err := s.page.DocumentHTML(ctx)
	if err != nil {
		s.logger.Warn("Failed to read result page.", zap.String("link", link), zap.Error(err))
		return ErrorFetchingContent
	}
	pageURL, err := s.page.URL(ctx)
	if err != nil {
		s.logger.Warn("Failed to read result page location.", zap.String("link", link), zap.Error(err))
		return ErrorFetchingContent
	}
	summary, err := s.summarizer.Summary(html, pageURL, s.cfg.ContentLimit)
	if err != nil {
		s.logger.Warn("Failed to summarize result page.", zap.String("link", link), zap.Error(err))
		return ErrorFetchingContent
	}
	return summary
}

// extractResultsJS reads organic results from the current results page,
// skipping blocks whose first link points back into Google.
const extractResultsJS = `(() => {
	const items = [];
	for (const block of document.querySelectorAll("div.MjjYud")) {
		const title = block.querySelector("h3");
		const link = block.querySelector("a");
		const snippet = block.querySelector("div.VwiC3b, div[data-sncf]");
		if (!title || !link || !link.href || link.href.startsWith("https://www.google.com")) {
			continue;
		}
		items.push({
			title: (title.textContent || "").trim(),
			link: link.href,
			snippet: snippet ? (snippet.textContent || "").trim() : "",
		});
	}
	return items;
})()`
