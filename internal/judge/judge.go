package judge

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ainews/internal/database"
	"ainews/internal/llm"
)

// batchSize bounds one judgment call so the combined prompt stays small.
const batchSize = 50

const promptTemplate = `你是AI资讯编辑。请判断以下资讯是否重要（AI/LLM相关的研究、模型发布、行业动态、重要讨论）：

%s

输出JSON数组，每条资讯一个对象：

[
  {"index": 0, "important": true, "reason": "一句话理由"},
  ...
]

只输出JSON，不要其他内容。
`

// Result summarizes one judgment pass.
type Result struct {
	Judged     int
	Important  int
	Ignored    int
	FailedOpen bool
}

// Judge marks fresh articles as important or ignorable in one batched
// model call.
type Judge struct {
	db     *database.DB
	client *llm.Client
	model  string
}

// New creates a judgment stage.
func New(db *database.DB, client *llm.Client, model string) *Judge {
	return &Judge{db: db, client: client, model: model}
}

// Run judges one batch of unjudged articles. A model or parse failure
// fails the batch open: every article is kept so nothing is silently
// dropped.
func (j *Judge) Run(ctx context.Context) (*Result, error) {
	articles, err := j.db.GetUnjudged(batchSize)
	if err != nil {
		return nil, fmt.Errorf("loading unjudged articles: %w", err)
	}
	if len(articles) == 0 {
		return &Result{}, nil
	}

	verdicts := j.judgeBatch(ctx, articles)
	if verdicts == nil {
		return j.failOpen(articles)
	}

	r := &Result{Judged: len(articles)}
	for i := range articles {
		important, ok := verdicts[i]
		if !ok {
			// The model skipped this index; keep the article.
			important = true
		}
		if err := j.db.SetJudgment(articles[i].ID, !important); err != nil {
			return nil, fmt.Errorf("recording judgment: %w", err)
		}
		if important {
			r.Important++
		} else {
			r.Ignored++
		}
	}

	log.Printf("[judge] %d judged: %d important, %d ignored", r.Judged, r.Important, r.Ignored)
	return r, nil
}

// judgeBatch returns index→important, or nil when the call or parse
// failed.
func (j *Judge) judgeBatch(ctx context.Context, articles []database.Article) map[int]bool {
	var lines []string
	for i, a := range articles {
		title := a.Title
		if runes := []rune(title); len(runes) > 150 {
			title = string(runes[:150])
		}
		lines = append(lines, fmt.Sprintf("%d. [%s] %s", i, a.Source, title))
	}

	resp, err := j.client.Complete(ctx, llm.Request{
		Model:       j.model,
		Prompt:      fmt.Sprintf(promptTemplate, strings.Join(lines, "\n")),
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		log.Printf("[judge] model call failed: %v", err)
		return nil
	}

	parsed := llm.ParseArray(resp)
	if parsed == nil {
		log.Printf("[judge] unparseable response, failing open")
		return nil
	}

	verdicts := make(map[int]bool)
	for _, elem := range parsed {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		idx, ok := obj["index"].(float64)
		if !ok {
			continue
		}
		i := int(idx)
		if i < 0 || i >= len(articles) {
			continue
		}
		important, ok := obj["important"].(bool)
		if !ok {
			// Missing or mistyped verdict; leave the index unset so the
			// article is kept, same as a skipped index.
			continue
		}
		verdicts[i] = important
	}
	return verdicts
}

// failOpen keeps every article in the batch eligible for the later
// stages.
func (j *Judge) failOpen(articles []database.Article) (*Result, error) {
	for i := range articles {
		if err := j.db.SetJudgment(articles[i].ID, false); err != nil {
			return nil, fmt.Errorf("recording fallback judgment: %w", err)
		}
	}
	log.Printf("[judge] failed open, kept all %d articles", len(articles))
	return &Result{
		Judged:     len(articles),
		Important:  len(articles),
		FailedOpen: true,
	}, nil
}
