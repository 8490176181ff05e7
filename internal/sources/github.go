package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"ainews/internal/config"
	"ainews/internal/database"
)

const githubAPIBase = "https://api.github.com"

// GitHubCrawler fetches trending repositories per topic and recent
// releases from tracked organizations.
type GitHubCrawler struct {
	cfg     config.GitHubSource
	client  *Client
	apiBase string
	token   string
	now     func() time.Time
}

// NewGitHubCrawler creates a GitHub adapter. The 500ms spacing keeps us
// well inside the API quota even without a token.
func NewGitHubCrawler(cfg config.GitHubSource) *GitHubCrawler {
	return &GitHubCrawler{
		cfg:     cfg,
		client:  NewClient(500 * time.Millisecond),
		apiBase: githubAPIBase,
		token:   os.Getenv(cfg.TokenEnv),
		now:     time.Now,
	}
}

func (g *GitHubCrawler) Name() string { return "github" }
func (g *GitHubCrawler) Close()       { g.client.Close() }

func (g *GitHubCrawler) headers() map[string]string {
	h := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if g.token != "" {
		h["Authorization"] = "token " + g.token
	}
	return h
}

// Fetch returns trending repos plus recent org releases. A failed topic
// or org is logged and skipped; the error is returned only when nothing
// at all could be fetched.
func (g *GitHubCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	var articles []database.Article
	var firstErr error

	trending, err := g.fetchTrending(ctx)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	articles = append(articles, trending...)

	releases, err := g.fetchOrgReleases(ctx)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	articles = append(articles, releases...)

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}

type githubRepo struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	CreatedAt   string   `json:"created_at"`
}

func (g *GitHubCrawler) fetchTrending(ctx context.Context) ([]database.Article, error) {
	since := g.now().AddDate(0, 0, -7).Format("2006-01-02")
	var articles []database.Article
	var firstErr error

	for _, topic := range g.cfg.Topics {
		var result struct {
			Items []githubRepo `json:"items"`
		}
		err := g.client.GetJSON(ctx, g.apiBase+"/search/repositories", url.Values{
			"q":        {fmt.Sprintf("topic:%s pushed:>%s", topic, since)},
			"sort":     {"stars"},
			"order":    {"desc"},
			"per_page": {"10"},
		}, g.headers(), &result)
		if err != nil {
			log.Printf("[github] trending fetch failed for topic=%s: %v", topic, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, repo := range result.Items {
			articles = append(articles, g.repoArticle(repo))
		}
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}

func (g *GitHubCrawler) repoArticle(repo githubRepo) database.Article {
	extra, _ := json.Marshal(map[string]any{
		"stars":    repo.Stars,
		"forks":    repo.Forks,
		"language": repo.Language,
	})

	tags := repo.Topics
	if len(tags) > 5 {
		tags = tags[:5]
	}

	var publishedAt *time.Time
	if t, err := time.Parse(time.RFC3339, repo.CreatedAt); err == nil {
		publishedAt = &t
	}

	return database.Article{
		Source:      "github",
		SourceID:    strPtr(fmt.Sprintf("repo-%d", repo.ID)),
		Title:       fmt.Sprintf("[GitHub Trending] %s ⭐%d", repo.FullName, repo.Stars),
		URL:         repo.HTMLURL,
		Content:     strPtr(truncate(repo.Description, maxContentLen)),
		Category:    strPtr("trending_repo"),
		Author:      strPtr(repo.Owner.Login),
		Tags:        strPtr(strings.Join(tags, ",")),
		Extra:       strPtr(string(extra)),
		PublishedAt: publishedAt,
		FetchedAt:   g.now(),
	}
}

type githubRelease struct {
	ID          int64  `json:"id"`
	TagName     string `json:"tag_name"`
	HTMLURL     string `json:"html_url"`
	Body        string `json:"body"`
	PublishedAt string `json:"published_at"`
}

func (g *GitHubCrawler) fetchOrgReleases(ctx context.Context) ([]database.Article, error) {
	cutoff := g.now().AddDate(0, 0, -7)
	var articles []database.Article
	var firstErr error

	for _, org := range g.cfg.Orgs {
		var repos []githubRepo
		err := g.client.GetJSON(ctx, g.apiBase+"/orgs/"+org+"/repos", url.Values{
			"sort":     {"updated"},
			"per_page": {"10"},
		}, g.headers(), &repos)
		if err != nil {
			log.Printf("[github] repo list failed for org=%s: %v", org, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, repo := range repos {
			var releases []githubRelease
			err := g.client.GetJSON(ctx, g.apiBase+"/repos/"+repo.FullName+"/releases", url.Values{
				"per_page": {"3"},
			}, g.headers(), &releases)
			if err != nil {
				// Many repos have no releases endpoint payload worth noting.
				continue
			}

			for _, rel := range releases {
				var publishedAt *time.Time
				if rel.PublishedAt != "" {
					t, err := time.Parse(time.RFC3339, rel.PublishedAt)
					if err != nil {
						continue
					}
					if t.Before(cutoff) {
						continue
					}
					publishedAt = &t
				}

				articles = append(articles, database.Article{
					Source:      "github",
					SourceID:    strPtr(fmt.Sprintf("release-%d", rel.ID)),
					Title:       fmt.Sprintf("[GitHub Release] %s %s", repo.FullName, rel.TagName),
					URL:         rel.HTMLURL,
					Content:     strPtr(truncate(rel.Body, maxContentLen)),
					Category:    strPtr("release"),
					Author:      strPtr(org),
					Tags:        strPtr(repo.FullName),
					PublishedAt: publishedAt,
					FetchedAt:   g.now(),
				})
			}
		}
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}
