package briefing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ainews/internal/database"
	"ainews/internal/llm"
)

const (
	dailyWindow  = 24 * time.Hour
	dailyLimit   = 20
	weeklyWindow = 7 * 24 * time.Hour
	weeklyLimit  = 30

	// Pause between the Chinese and English generation calls.
	interCallPause = 3 * time.Second
)

const systemPromptZH = `你是一位资深AI行业分析师，负责编写每日AI行业简报。

要求：
1. 使用中文撰写
2. 按以下分类组织内容：
   - 🔥 重要动态（重大发布、突破性进展）
   - 📝 论文亮点（值得关注的新论文）
   - 🛠️ 开源项目（热门新项目、重要版本更新）
   - 💬 社区热议（Reddit、Twitter上的热门讨论）
   - 📊 排行榜变化（Benchmark变动、新纪录）
   - 📰 行业新闻（厂商博客更新、行业动态）
3. 每个分类下的条目应包含：标题、简短摘要（1-2句话）、来源链接
4. 如果某个分类没有内容，可以跳过
5. 开头写一段总结（3-5句话），概述今日AI领域最重要的进展
6. 使用Markdown格式

请生成一篇专业、信息密度高、易于阅读的AI行业简报。`

const systemPromptEN = `You are a senior AI industry analyst responsible for writing AI industry briefings.

Requirements:
1. Write in English
2. Organize content by the following categories:
   - 🔥 Key Highlights (major releases, breakthroughs)
   - 📝 Notable Papers (papers worth following)
   - 🛠️ Open Source (trending new projects, major version updates)
   - 💬 Community Buzz (hot discussions on Reddit, Twitter)
   - 📊 Leaderboard Changes (benchmark shifts, new records)
   - 📰 Industry News (vendor blog updates, industry developments)
3. Each item should include: title, brief summary (1-2 sentences), source link
4. Skip categories that have no content
5. Start with a summary paragraph (3-5 sentences) highlighting the most important developments
6. Use Markdown format

Generate a professional, information-dense, and easy-to-read AI industry briefing.`

// Generator turns the recent article window into stored bilingual
// briefings.
type Generator struct {
	db           *database.DB
	client       *llm.Client
	model        string
	briefingsDir string

	pause func(time.Duration)
	now   func() time.Time
}

// New creates a briefing generator. briefingsDir may be empty to skip
// writing Markdown files.
func New(db *database.DB, client *llm.Client, model, briefingsDir string) *Generator {
	return &Generator{
		db:           db,
		client:       client,
		model:        model,
		briefingsDir: briefingsDir,
		pause:        time.Sleep,
		now:          time.Now,
	}
}

// GenerateDaily generates today's daily briefing. An existing briefing
// for the date is returned unchanged without any model call.
func (g *Generator) GenerateDaily(ctx context.Context) (*database.Briefing, error) {
	return g.generate(ctx, database.PeriodDaily)
}

// GenerateWeekly generates the weekly briefing for the week ending
// today.
func (g *Generator) GenerateWeekly(ctx context.Context) (*database.Briefing, error) {
	return g.generate(ctx, database.PeriodWeekly)
}

func (g *Generator) generate(ctx context.Context, period string) (*database.Briefing, error) {
	date := g.now().UTC().Format("2006-01-02")

	existing, err := g.db.GetBriefing(date, period)
	if err != nil {
		return nil, fmt.Errorf("checking existing briefing: %w", err)
	}
	if existing != nil {
		log.Printf("[briefing] %s briefing for %s already exists, skipping", period, date)
		return existing, nil
	}

	window, limit, maxTokens := dailyWindow, dailyLimit, 4096
	if period == database.PeriodWeekly {
		window, limit, maxTokens = weeklyWindow, weeklyLimit, 8000
	}

	articles, err := g.db.GetBriefingWindow(g.now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("loading briefing window: %w", err)
	}
	if len(articles) == 0 {
		log.Printf("[briefing] no articles for %s briefing on %s", period, date)
		return nil, nil
	}

	log.Printf("[briefing] generating %s briefing for %s with %d articles", period, date, len(articles))

	contentZH, err := g.client.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      systemPromptZH,
		Prompt:      userPrompt(articles, period, date, "zh"),
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating Chinese briefing: %w", err)
	}

	g.pause(interCallPause)

	contentEN, err := g.client.Complete(ctx, llm.Request{
		Model:       g.model,
		System:      systemPromptEN,
		Prompt:      userPrompt(articles, period, date, "en"),
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generating English briefing: %w", err)
	}

	title, titleEn := titles(period, date)
	b := &database.Briefing{
		Date:              date,
		Period:            period,
		Title:             title,
		TitleEn:           &titleEn,
		ContentMarkdown:   contentZH,
		ContentMarkdownEn: &contentEN,
		ArticleCount:      len(articles),
		CreatedAt:         g.now().UTC(),
	}

	id, err := g.db.InsertBriefing(b)
	if err != nil {
		return nil, fmt.Errorf("storing briefing: %w", err)
	}
	b.ID = id

	if g.briefingsDir != "" {
		if path, err := SaveMarkdown(g.briefingsDir, b); err != nil {
			log.Printf("[briefing] saving markdown: %v", err)
		} else {
			log.Printf("[briefing] saved %s", path)
		}
	}

	return b, nil
}

func titles(period, date string) (zh, en string) {
	if period == database.PeriodWeekly {
		return "AI 行业周报 - " + date, "AI Weekly Briefing - " + date
	}
	return "AI 行业日报 - " + date, "AI Daily Briefing - " + date
}

// userPrompt lists the window articles by importance for the model.
func userPrompt(articles []database.Article, period, date, lang string) string {
	var b strings.Builder

	for i, a := range articles {
		title := a.Title
		summary := deref(a.Summary, deref(a.Content, ""))
		summaryLabel, linkLabel, importanceLabel := "摘要", "链接", "重要性"
		if lang == "en" {
			title = deref(a.AITitleEn, a.Title)
			summary = deref(a.SummaryEn, summary)
			summaryLabel, linkLabel, importanceLabel = "Summary", "Link", "Importance"
		} else if a.AITitle != nil {
			title = *a.AITitle
		}
		if len(summary) > 200 {
			summary = truncateRunes(summary, 200) + "..."
		}
		score := 3.0
		if a.ImportanceScore != nil {
			score = *a.ImportanceScore
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n   %s: %s\n   %s: %s\n   %s: %.1f/5\n\n",
			i+1, a.Source, title, summaryLabel, summary, linkLabel, a.URL, importanceLabel, score)
	}

	articlesText := strings.TrimRight(b.String(), "\n")
	if lang == "en" {
		periodText, periodName := "24 hours", "daily"
		if period == database.PeriodWeekly {
			periodText, periodName = "one week", "weekly"
		}
		return fmt.Sprintf(
			"Below are important AI industry updates collected over the past %s (sorted by importance):\n\n%s\n\nBased on the above, generate a %s briefing. Date: %s",
			periodText, articlesText, periodName, date)
	}

	periodText, periodName := "24小时", "每日"
	if period == database.PeriodWeekly {
		periodText, periodName = "一周", "每周"
	}
	return fmt.Sprintf(
		"以下是过去%s收集到的AI行业重要资讯（按重要性排序）：\n\n%s\n\n请基于以上资讯，生成一篇%s简报。日期：%s",
		periodText, articlesText, periodName, date)
}

func deref(s *string, def string) string {
	if s != nil && *s != "" {
		return *s
	}
	return def
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
