package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

const arxivAPIBase = "http://export.arxiv.org/api/query"

// ArxivCrawler fetches the latest papers from configured arXiv
// categories via the export API (Atom).
type ArxivCrawler struct {
	cfg     config.ArxivSource
	client  *Client
	apiBase string
	now     func() time.Time
}

// NewArxivCrawler creates an arXiv adapter. The export API asks for at
// least 3s between requests.
func NewArxivCrawler(cfg config.ArxivSource) *ArxivCrawler {
	return &ArxivCrawler{
		cfg:     cfg,
		client:  NewClient(3 * time.Second),
		apiBase: arxivAPIBase,
		now:     time.Now,
	}
}

func (a *ArxivCrawler) Name() string { return "arxiv" }
func (a *ArxivCrawler) Close()       { a.client.Close() }

// Fetch queries by category only. Keywords never change selection; a
// match just adds tags so later stages can weight the paper.
func (a *ArxivCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	var catTerms []string
	for _, cat := range a.cfg.Categories {
		catTerms = append(catTerms, "cat:"+cat)
	}

	maxResults := a.cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 30
	}

	params := url.Values{
		"search_query": {strings.Join(catTerms, " OR ")},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
		"max_results":  {fmt.Sprintf("%d", maxResults)},
	}

	body, err := a.client.Get(ctx, a.apiBase, params, nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	feed, err := parseAtom(body)
	if err != nil {
		return nil, fmt.Errorf("arxiv feed: %w", err)
	}

	var articles []database.Article
	for _, item := range feed.Items {
		entryURL := item.Link
		if entryURL == "" && len(item.Links) > 0 {
			entryURL = item.Links[0]
		}
		if entryURL == "" || item.Title == "" {
			continue
		}

		arxivID := entryURL
		if i := strings.Index(arxivID, "/abs/"); i >= 0 {
			arxivID = arxivID[i+len("/abs/"):]
		}

		summary := stripHTML(item.Description)
		tags := a.matchTags(item.Title, summary, item.Categories)

		var authors []string
		for i, person := range item.Authors {
			if i >= 5 {
				break
			}
			authors = append(authors, person.Name)
		}

		articles = append(articles, database.Article{
			Source:      "arxiv",
			SourceID:    strPtr("arxiv-" + arxivID),
			Title:       "[Arxiv] " + strings.Join(strings.Fields(item.Title), " "),
			URL:         entryURL,
			Content:     strPtr(truncate(summary, maxContentLen)),
			Category:    strPtr("paper"),
			Author:      strPtr(strings.Join(authors, ", ")),
			Tags:        strPtr(strings.Join(tags, ",")),
			PublishedAt: itemTime(item),
			FetchedAt:   a.now(),
		})
	}

	return articles, nil
}

// matchTags combines up to 3 category tags with up to 3 matched
// keywords.
func (a *ArxivCrawler) matchTags(title, summary string, categories []string) []string {
	var tags []string
	for i, c := range categories {
		if i >= 3 {
			break
		}
		tags = append(tags, c)
	}

	titleLower := strings.ToLower(title)
	summaryLower := strings.ToLower(summary)
	matched := 0
	for _, kw := range a.cfg.Keywords {
		if matched >= 3 {
			break
		}
		kwLower := strings.ToLower(kw)
		if strings.Contains(titleLower, kwLower) || strings.Contains(summaryLower, kwLower) {
			tags = append(tags, kw)
			matched++
		}
	}
	return tags
}
