package sentiment

import (
	"strings"

	"github.com/newthinker/insight/internal/news"
)

// NewsTexts joins each item's title and description, keeping the
// most-recent-first order of items.
func NewsTexts(items []news.Item) []string {
	texts := make([]string, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(it.Title + " " + it.Description)
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}
