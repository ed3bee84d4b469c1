package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hyperifyio/websearch/internal/search"
)

// resultsMarkdown formats results as a numbered markdown list.
func resultsMarkdown(title string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(results) == 0 {
		b.WriteString("_No results._\n")
		return b.String()
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **[%s](%s)**\n", i+1, escapeMarkdown(r.Title), r.URL)
		meta := []string{r.Provider}
		if r.Domain != "" {
			meta = append(meta, r.Domain)
		}
		if r.PublishedDate != "" {
			meta = append(meta, r.PublishedDate)
		}
		fmt.Fprintf(&b, "   _%s_\n", strings.Join(meta, " · "))
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n   %s\n", escapeMarkdown(r.Snippet))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var mdEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

func renderMarkdown(md string, width int) (string, error) {
	if width > 20 {
		width -= 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
