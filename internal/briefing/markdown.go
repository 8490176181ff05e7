package briefing

import (
	"fmt"
	"os"
	"path/filepath"

	"ainews/internal/database"
)

// SaveMarkdown writes a briefing as <period>-<date>.md under dir and
// returns the file path.
func SaveMarkdown(dir string, b *database.Briefing) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating briefings dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", b.Period, b.Date))

	content := fmt.Sprintf("# %s\n\n> 生成时间: %s\n> 文章数量: %d\n\n---\n\n%s",
		b.Title, b.CreatedAt.Format("2006-01-02 15:04:05"), b.ArticleCount, b.ContentMarkdown)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing briefing file: %w", err)
	}
	return path, nil
}
