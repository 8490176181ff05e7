package enrich

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"ainews/internal/database"
)

// batchSize bounds one enrichment pass.
const batchSize = 50

// maxContentLen matches the storage cap applied by the source adapters.
const maxContentLen = 2000

// Result holds the results of a content enrichment run.
type Result struct {
	Fetched int
	Failed  int
}

// Enricher fills in full article text for items whose adapter only
// delivered a link, via HTTP plus readability extraction.
type Enricher struct {
	db     *database.DB
	client *http.Client
}

// New creates a content enricher.
func New(db *database.DB, timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Enricher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Run fetches full text for articles with empty content. Every article
// gets exactly one attempt; a domain that errors once is skipped for
// the rest of the pass.
func (e *Enricher) Run() *Result {
	articles, err := e.db.GetNeedingContent(batchSize)
	if err != nil {
		log.Printf("[enrich] loading articles: %v", err)
		return &Result{}
	}
	if len(articles) == 0 {
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, article := range articles {
		u, _ := url.Parse(article.URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			e.db.MarkContentAttempted(article.ID)
			result.Failed++
			continue
		}

		content, httpErr := e.extract(article.URL)
		if httpErr != nil {
			e.db.MarkContentAttempted(article.ID)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("[enrich] HTTP error for %s, skipping remaining from %s", article.URL, domain)
			continue
		}

		if content != "" {
			e.db.SetContent(article.ID, content)
			result.Fetched++
		} else {
			e.db.MarkContentAttempted(article.ID)
			result.Failed++
		}
	}

	log.Printf("[enrich] %d fetched, %d failed", result.Fetched, result.Failed)
	return result
}

// extract downloads a page and pulls out the readable text. A non-nil
// error means the server answered with an error status; connection and
// parse problems just yield empty content.
func (e *Enricher) extract(articleURL string) (string, error) {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ainews/1.0 (news aggregator)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	page, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) <= 100 {
		return "", nil
	}
	if runes := []rune(text); len(runes) > maxContentLen {
		text = string(runes[:maxContentLen])
	}
	return text, nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
