// Package markdown extracts Markdown files as a single plain-text segment.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/docutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser keeps Markdown source as one text segment.
type Normaliser struct{}

// New creates a Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatMarkdown}
}

// Normalise keeps heading, list and paragraph text. Markup, fenced code,
// images and link targets are dropped. The title comes from front matter,
// then the first level-one heading, then the filename.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	lines := strings.Split(strings.ReplaceAll(string(raw.Content), "\r\n", "\n"), "\n")
	front, body := splitFrontMatter(lines)

	title := frontMatterTitle(front)
	if title == "" {
		title = extractMarkdownTitle(strings.Join(body, "\n"), raw.Filename)
	}

	doc := docutil.NewDocument(raw, domain.FormatMarkdown, title, []string{stripMarkdown(strings.Join(body, "\n"))})
	return &driven.NormaliseResult{Document: doc}, nil
}

// splitFrontMatter separates a leading "---" YAML block. An unterminated
// block is treated as ordinary content.
func splitFrontMatter(lines []string) (front, body []string) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, lines
	}
	for i := 1; i < len(lines); i++ {
		if l := strings.TrimSpace(lines[i]); l == "---" || l == "..." {
			return lines[1:i], lines[i+1:]
		}
	}
	return nil, lines
}

func frontMatterTitle(front []string) string {
	for _, line := range front {
		key, val, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "title" {
			return strings.Trim(strings.TrimSpace(val), `"'`)
		}
	}
	return ""
}

func extractMarkdownTitle(content, filename string) string {
	for line := range strings.SplitSeq(content, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(strings.TrimRight(rest, "#"))
		}
	}
	return docutil.TitleFromFilename(filename)
}

var (
	image        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	link         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	rule         = regexp.MustCompile(`^([-*_])(\s*([-*_]))*\s*$`)
	heading      = regexp.MustCompile(`^#{1,6}\s+`)
	quote        = regexp.MustCompile(`^(>\s?)+`)
	bullet       = regexp.MustCompile(`^[-*+]\s+(\[[ xX]\]\s+)?`)
	numbered     = regexp.MustCompile(`^\d+[.)]\s+`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	emphasisMark = strings.NewReplacer("**", "", "__", "", "*", "")
)

// stripMarkdown works line by line. Fenced code blocks collapse to a
// single blank line.
func stripMarkdown(content string) string {
	var (
		out   []string
		fence string
	)
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			out = append(out, "")
			continue
		}
		if len(trimmed) >= 3 && rule.MatchString(trimmed) {
			out = append(out, "")
			continue
		}

		out = append(out, stripLine(trimmed))
	}

	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))
}

func stripLine(line string) string {
	line = quote.ReplaceAllString(line, "")
	if heading.MatchString(line) {
		line = strings.TrimSpace(strings.TrimRight(heading.ReplaceAllString(line, ""), "#"))
	}
	line = bullet.ReplaceAllString(line, "")
	line = numbered.ReplaceAllString(line, "")

	line = image.ReplaceAllString(line, "")
	line = link.ReplaceAllString(line, "$1")
	line = inlineCode.ReplaceAllString(line, "$1")
	return emphasisMark.Replace(line)
}
