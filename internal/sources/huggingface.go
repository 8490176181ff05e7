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

const hfAPIBase = "https://huggingface.co/api"

// HuggingFaceCrawler fetches trending models, daily papers and trending
// spaces from the Hugging Face Hub API.
type HuggingFaceCrawler struct {
	client *Client
	token  string
	now    func() time.Time
}

// NewHuggingFaceCrawler creates a Hugging Face adapter.
func NewHuggingFaceCrawler(cfg config.HuggingFaceSource) *HuggingFaceCrawler {
	return &HuggingFaceCrawler{
		client: NewClient(1500 * time.Millisecond),
		token:  os.Getenv(cfg.TokenEnv),
		now:    time.Now,
	}
}

func (h *HuggingFaceCrawler) Name() string { return "huggingface" }
func (h *HuggingFaceCrawler) Close()       { h.client.Close() }

func (h *HuggingFaceCrawler) headers() map[string]string {
	if h.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + h.token}
}

func (h *HuggingFaceCrawler) Fetch(ctx context.Context) ([]database.Article, error) {
	var articles []database.Article
	var firstErr error

	for _, fetch := range []func(context.Context) ([]database.Article, error){
		h.fetchModels, h.fetchPapers, h.fetchSpaces,
	} {
		batch, err := fetch(ctx)
		if err != nil {
			log.Printf("[huggingface] %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		articles = append(articles, batch...)
	}

	if len(articles) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return articles, nil
}

func (h *HuggingFaceCrawler) fetchModels(ctx context.Context) ([]database.Article, error) {
	var models []struct {
		ModelID     string `json:"modelId"`
		ID          string `json:"id"`
		PipelineTag string `json:"pipeline_tag"`
		Downloads   int    `json:"downloads"`
		Likes       int    `json:"likes"`
	}
	err := h.client.GetJSON(ctx, hfAPIBase+"/models", url.Values{
		"sort":      {"likes"},
		"direction": {"-1"},
		"limit":     {"20"},
	}, h.headers(), &models)
	if err != nil {
		return nil, fmt.Errorf("trending models: %w", err)
	}

	var articles []database.Article
	for _, m := range models {
		modelID := m.ModelID
		if modelID == "" {
			modelID = m.ID
		}
		if modelID == "" {
			continue
		}

		extra, _ := json.Marshal(map[string]any{
			"downloads":    m.Downloads,
			"likes":        m.Likes,
			"pipeline_tag": m.PipelineTag,
		})

		articles = append(articles, database.Article{
			Source:   "huggingface",
			SourceID: strPtr("model-" + modelID),
			Title:    "[HF Model] " + modelID,
			URL:      "https://huggingface.co/" + modelID,
			Content: strPtr(fmt.Sprintf("Pipeline: %s. Downloads: %d. Likes: %d.",
				orDefault(m.PipelineTag, "N/A"), m.Downloads, m.Likes)),
			Category:  strPtr("model"),
			Author:    strPtr(ownerOf(modelID)),
			Tags:      strPtr(m.PipelineTag),
			Extra:     strPtr(string(extra)),
			FetchedAt: h.now(),
		})
	}
	return articles, nil
}

func (h *HuggingFaceCrawler) fetchPapers(ctx context.Context) ([]database.Article, error) {
	var papers []struct {
		NumUpvotes int `json:"numUpvotes"`
		Paper      struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Summary     string `json:"summary"`
			PublishedAt string `json:"publishedAt"`
			Authors     []struct {
				Name string `json:"name"`
			} `json:"authors"`
		} `json:"paper"`
	}
	err := h.client.GetJSON(ctx, hfAPIBase+"/daily_papers", nil, h.headers(), &papers)
	if err != nil {
		return nil, fmt.Errorf("daily papers: %w", err)
	}

	if len(papers) > 20 {
		papers = papers[:20]
	}

	var articles []database.Article
	for _, p := range papers {
		if p.Paper.ID == "" {
			continue
		}

		var publishedAt *time.Time
		if t, err := time.Parse(time.RFC3339, p.Paper.PublishedAt); err == nil {
			publishedAt = &t
		}

		var authors []string
		for i, a := range p.Paper.Authors {
			if i >= 3 {
				break
			}
			authors = append(authors, a.Name)
		}

		extra, _ := json.Marshal(map[string]any{"upvotes": p.NumUpvotes})

		articles = append(articles, database.Article{
			Source:      "huggingface",
			SourceID:    strPtr("paper-" + p.Paper.ID),
			Title:       "[HF Paper] " + p.Paper.Title,
			URL:         "https://huggingface.co/papers/" + p.Paper.ID,
			Content:     strPtr(truncate(p.Paper.Summary, maxContentLen)),
			Category:    strPtr("paper"),
			Author:      strPtr(strings.Join(authors, ", ")),
			Tags:        strPtr("paper"),
			Extra:       strPtr(string(extra)),
			PublishedAt: publishedAt,
			FetchedAt:   h.now(),
		})
	}
	return articles, nil
}

func (h *HuggingFaceCrawler) fetchSpaces(ctx context.Context) ([]database.Article, error) {
	var spaces []struct {
		ID    string `json:"id"`
		SDK   string `json:"sdk"`
		Likes int    `json:"likes"`
	}
	err := h.client.GetJSON(ctx, hfAPIBase+"/spaces", url.Values{
		"sort":      {"likes"},
		"direction": {"-1"},
		"limit":     {"10"},
	}, h.headers(), &spaces)
	if err != nil {
		return nil, fmt.Errorf("trending spaces: %w", err)
	}

	var articles []database.Article
	for _, s := range spaces {
		if s.ID == "" {
			continue
		}

		extra, _ := json.Marshal(map[string]any{"likes": s.Likes, "sdk": s.SDK})

		articles = append(articles, database.Article{
			Source:   "huggingface",
			SourceID: strPtr("space-" + s.ID),
			Title:    "[HF Space] " + s.ID,
			URL:      "https://huggingface.co/spaces/" + s.ID,
			Content: strPtr(fmt.Sprintf("SDK: %s. Likes: %d.",
				orDefault(s.SDK, "N/A"), s.Likes)),
			Category:  strPtr("space"),
			Author:    strPtr(ownerOf(s.ID)),
			Tags:      strPtr("space"),
			Extra:     strPtr(string(extra)),
			FetchedAt: h.now(),
		})
	}
	return articles, nil
}

func ownerOf(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
