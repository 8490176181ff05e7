package site

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"ainews/internal/config"
	"ainews/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

// indexArticleLimit caps the headline list on the index page.
const indexArticleLimit = 15

// Builder renders the database content into a static site.
type Builder struct {
	db  *database.DB
	cfg *config.Config
	now func() time.Time
}

// New creates a site builder.
func New(db *database.DB, cfg *config.Config) *Builder {
	return &Builder{db: db, cfg: cfg, now: time.Now}
}

type siteContext struct {
	SiteTitle       string
	SiteDescription string
	SiteURL         string
	GeneratedAt     string
}

type briefingPage struct {
	Site      siteContext
	Briefing  *database.Briefing
	ContentZH template.HTML
	ContentEN template.HTML
}

type indexPage struct {
	Site            siteContext
	LatestBriefing  *database.Briefing
	LatestHTML      template.HTML
	LatestArticles  []database.Article
	RecentBriefings []briefingLink
	SourceStatuses  []database.SourceStatus
}

type archivePage struct {
	Site   siteContext
	Daily  []briefingLink
	Weekly []briefingLink
}

type briefingLink struct {
	Date      string  `json:"date"`
	Period    string  `json:"period"`
	Title     string  `json:"title"`
	TitleEn   *string `json:"title_en"`
	ItemCount int     `json:"item_count"`
	URL       string  `json:"url"`
}

// Build renders index, per-briefing pages, the archive and the JSON
// index into dir.
func (b *Builder) Build(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating site dir: %w", err)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	briefings, err := b.db.GetAllBriefings()
	if err != nil {
		return fmt.Errorf("loading briefings: %w", err)
	}
	latestArticles, err := b.db.GetLatestImportant(indexArticleLimit)
	if err != nil {
		return fmt.Errorf("loading latest articles: %w", err)
	}
	statuses, err := b.db.GetSourceStatuses()
	if err != nil {
		return fmt.Errorf("loading source statuses: %w", err)
	}

	site := siteContext{
		SiteTitle:       b.cfg.Publish.SiteTitle,
		SiteDescription: b.cfg.Publish.SiteDescription,
		SiteURL:         b.cfg.Publish.SiteURL,
		GeneratedAt:     b.now().UTC().Format("2006-01-02 15:04 UTC"),
	}

	links := make([]briefingLink, 0, len(briefings))
	for i := range briefings {
		links = append(links, linkFor(&briefings[i]))
	}

	// index.html
	var latest *database.Briefing
	var latestHTML template.HTML
	if len(briefings) > 0 {
		latest = &briefings[0]
		latestHTML = mdToHTML(latest.ContentMarkdown)
	}
	recent := links
	if len(recent) > 10 {
		recent = recent[:10]
	}
	if err := b.render(tmpl, filepath.Join(dir, "index.html"), "index.html", indexPage{
		Site:            site,
		LatestBriefing:  latest,
		LatestHTML:      latestHTML,
		LatestArticles:  latestArticles,
		RecentBriefings: recent,
		SourceStatuses:  statuses,
	}); err != nil {
		return err
	}

	// One page per briefing.
	for i := range briefings {
		br := &briefings[i]
		var contentEN template.HTML
		if br.ContentMarkdownEn != nil {
			contentEN = mdToHTML(*br.ContentMarkdownEn)
		}
		page := briefingPage{
			Site:      site,
			Briefing:  br,
			ContentZH: mdToHTML(br.ContentMarkdown),
			ContentEN: contentEN,
		}
		if err := b.render(tmpl, filepath.Join(dir, pageName(br)), "briefing.html", page); err != nil {
			return err
		}
	}

	// archive.html
	var daily, weekly []briefingLink
	for _, l := range links {
		if l.Period == database.PeriodWeekly {
			weekly = append(weekly, l)
		} else {
			daily = append(daily, l)
		}
	}
	if err := b.render(tmpl, filepath.Join(dir, "archive.html"), "archive.html", archivePage{
		Site:   site,
		Daily:  daily,
		Weekly: weekly,
	}); err != nil {
		return err
	}

	// briefings.json
	indexLinks := links
	if len(indexLinks) > 30 {
		indexLinks = indexLinks[:30]
	}
	data, err := json.MarshalIndent(indexLinks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding briefings index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "briefings.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing briefings index: %w", err)
	}

	log.Printf("[site] built %d briefing pages + index + archive in %s", len(briefings), dir)
	return nil
}

func (b *Builder) render(tmpl *template.Template, path, name string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func pageName(b *database.Briefing) string {
	return fmt.Sprintf("briefing-%s-%s.html", b.Period, b.Date)
}

func linkFor(b *database.Briefing) briefingLink {
	return briefingLink{
		Date:      b.Date,
		Period:    b.Period,
		Title:     b.Title,
		TitleEn:   b.TitleEn,
		ItemCount: b.ArticleCount,
		URL:       pageName(b),
	}
}

var templateFuncs = template.FuncMap{
	"score": func(p *float64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprintf("%.1f", *p)
	},
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// mdToHTML converts briefing Markdown to HTML. The source is our own
// generated content, so conversion failures just fall back to
// preformatted text.
func mdToHTML(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		log.Printf("[site] markdown conversion failed: %v", err)
		var esc bytes.Buffer
		template.HTMLEscape(&esc, []byte(md))
		return template.HTML("<pre>" + esc.String() + "</pre>")
	}
	return template.HTML(buf.String())
}
