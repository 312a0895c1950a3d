package livestring

import (
	"strings"
	"sync"

	"github.com/rivo/uniseg"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
	})
	return minifier
}

// HTMLEscape escapes the characters that are special in HTML text and
// attribute values.
func HTMLEscape(s string) string {
	return xhtml.EscapeString(s)
}

// MinifyHTML removes unnecessary whitespace from HTML while preserving content
func MinifyHTML(htmlContent string) string {
	// If content contains HTML tags, use full HTML minification
	if strings.Contains(htmlContent, "<") {
		minified, err := getMinifier().String("text/html", htmlContent)
		if err != nil {
			// If minification fails, fall back to original content
			return htmlContent
		}
		return minified
	}

	// For text-only content, normalize whitespace
	return normalizeWhitespace(htmlContent)
}

// normalizeWhitespace removes leading/trailing whitespace and normalizes internal whitespace
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// indentLines prefixes every non-empty line of s with indent.
func indentLines(indent string, s string) string {
	if indent == "" || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// paragraphs splits s on blank lines and joins the lines of each paragraph
// with single spaces.
func paragraphs(s string) []string {
	var (
		out     []string
		current []string
	)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				out = append(out, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, " "))
	}
	return out
}

// wrapText breaks s into lines of at most width display cells. With
// preserveWords, words are never split: a word is appended to the current
// line as long as that line is not wider than width, so lines may overflow.
func wrapText(width int, preserveWords bool, s string) string {
	if width <= 0 || s == "" {
		return s
	}
	var out []string
	for _, p := range paragraphs(s) {
		if preserveWords {
			out = append(out, wrapWords(width, p)...)
		} else {
			out = append(out, wrapCells(width, p)...)
		}
	}
	return strings.Join(out, "\n")
}

func wrapWords(width int, p string) []string {
	var (
		lines []string
		line  strings.Builder
		cells int
	)
	for _, word := range strings.Fields(p) {
		if line.Len() > 0 && cells > width {
			lines = append(lines, line.String())
			line.Reset()
			cells = 0
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
			cells++
		}
		line.WriteString(word)
		cells += uniseg.StringWidth(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func wrapCells(width int, p string) []string {
	var (
		lines []string
		line  strings.Builder
		cells int
	)
	g := uniseg.NewGraphemes(p)
	for g.Next() {
		cluster := g.Str()
		w := uniseg.StringWidth(cluster)
		if cells > 0 && cells+w > width {
			lines = append(lines, line.String())
			line.Reset()
			cells = 0
		}
		line.WriteString(cluster)
		cells += w
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
