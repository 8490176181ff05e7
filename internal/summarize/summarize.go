package summarize

import (
	"context"
	"fmt"
	"log"
	"time"

	"ainews/internal/database"
	"ainews/internal/llm"
)

// batchSize bounds one summarization pass.
const batchSize = 20

// itemPause spaces per-article calls on top of the client's own gate.
const itemPause = time.Second

const systemPrompt = `你是一个AI行业资讯编辑。你的任务是：

1. **生成中文标题**（15-30字）：提炼新闻核心信息，写一个有信息量的中文标题。
   - 好标题示例："Anthropic发布Claude 3.5 Sonnet，编程能力超越GPT-4o"
   - 好标题示例："Meta开源Llama 3.1 405B，首个可商用千亿参数模型"
   - 坏标题（太泛）："一个新的AI模型"

2. **生成英文标题**（concise, 8-15 words）：Same news summarized as an English headline.
   - Good: "Anthropic Launches Claude 3.5 Sonnet, Outperforming GPT-4o in Coding"
   - Bad (too vague): "A new AI model"

3. **生成中文摘要**（1-2句话）：补充标题没有覆盖的关键信息。

4. **生成英文摘要**（1-2 sentences）：Key information not covered by the English title.

5. **评估重要性**（1-5分）：
   - 5分：重大突破（新旗舰模型、行业变革性事件）
   - 4分：重要进展（知名厂商更新、重要论文、显著技术进步）
   - 3分：值得关注（有趣的开源项目、热门讨论）
   - 2分：一般信息（常规更新、小改进）
   - 1分：低价值（重复内容、低相关性）

请严格以JSON格式返回，不要有其他内容：
{"title": "中文标题", "title_en": "English Title", "summary": "中文摘要", "summary_en": "English summary", "score": 4}`

// Result summarizes one summarization pass.
type Result struct {
	Processed  int
	Summarized int
	Skipped    int
}

// Summarizer generates bilingual headlines, summaries and importance
// scores, one model call per article.
type Summarizer struct {
	db     *database.DB
	client *llm.Client
	model  string
	pause  func(time.Duration)
}

// New creates a summarization stage.
func New(db *database.DB, client *llm.Client, model string) *Summarizer {
	return &Summarizer{db: db, client: client, model: model, pause: time.Sleep}
}

// Run summarizes one batch of unsummarized, non-ignored articles. Each
// article is committed individually: an unparseable response stores a
// neutral score so the item is not retried forever, while a transport
// failure leaves the item for the next pass and the batch continues.
func (s *Summarizer) Run(ctx context.Context) (*Result, error) {
	articles, err := s.db.GetUnsummarized(batchSize)
	if err != nil {
		return nil, fmt.Errorf("loading unsummarized articles: %w", err)
	}

	r := &Result{}
	for i := range articles {
		if i > 0 {
			s.pause(itemPause)
		}
		if ctx.Err() != nil {
			break
		}
		r.Processed++

		a := &articles[i]
		resp, err := s.client.Complete(ctx, llm.Request{
			Model:       s.model,
			System:      systemPrompt,
			Prompt:      userPrompt(a),
			Temperature: 0.2,
			MaxTokens:   800,
		})
		if err != nil {
			log.Printf("[summarize] article %d: %v", a.ID, err)
			r.Skipped++
			continue
		}

		title, titleEn, summary, summaryEn, score := parseSummary(resp)
		if err := s.db.ApplySummary(a.ID, title, titleEn, summary, summaryEn, score); err != nil {
			return nil, fmt.Errorf("storing summary for article %d: %w", a.ID, err)
		}
		r.Summarized++
	}

	log.Printf("[summarize] %d processed: %d summarized, %d skipped", r.Processed, r.Summarized, r.Skipped)
	return r, nil
}

func userPrompt(a *database.Article) string {
	content := ""
	if a.Content != nil {
		content = *a.Content
	}
	if runes := []rune(content); len(runes) > 1500 {
		content = string(runes[:1500]) + "..."
	}

	return fmt.Sprintf("来源: %s\n原始标题: %s\n内容: %s\n链接: %s\n",
		a.Source, a.Title, content, a.URL)
}

// parseSummary extracts the bilingual fields and score. A malformed
// response degrades to empty text and a neutral 3.0 score.
func parseSummary(resp string) (title, titleEn, summary, summaryEn string, score float64) {
	obj := llm.ParseObject(resp)
	if obj == nil {
		return "", "", "", "", 3.0
	}

	title, _ = obj["title"].(string)
	titleEn, _ = obj["title_en"].(string)
	summary, _ = obj["summary"].(string)
	summaryEn, _ = obj["summary_en"].(string)

	score = 3.0
	if v, ok := obj["score"].(float64); ok {
		score = v
	}
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return title, titleEn, summary, summaryEn, score
}
