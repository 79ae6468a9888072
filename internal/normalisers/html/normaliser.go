package html

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/docutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MetaDescription holds the page's <meta name="description"> when present.
const MetaDescription = "description"

// Elements whose content is never shown.
var hidden = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
}

// Elements that start a new line of output.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Nav: true, atom.Main: true, atom.Aside: true, atom.Figure: true, atom.Figcaption: true,
}

// Normaliser extracts the visible text of an HTML page.
type Normaliser struct{}

// New creates an HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatHTML}
}

// Normalise returns the page text as one segment, one line per block
// element. The <title> becomes the document title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page := extract(raw.Content)

	title := page.title
	if title == "" {
		title = docutil.TitleFromFilename(raw.Filename)
	}

	doc := docutil.NewDocument(raw, domain.FormatHTML, title, []string{page.text})
	if page.description != "" {
		doc.Metadata[MetaDescription] = page.description
	}
	return &driven.NormaliseResult{Document: doc}, nil
}

type page struct {
	title       string
	description string
	text        string
}

func extract(content []byte) page {
	var (
		p       page
		body    strings.Builder
		title   strings.Builder
		inTitle bool
		depth   int // open hidden elements
		pre     int
	)

	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			p.title = collapse(title.String())
			p.text = tidy(body.String())
			return p

		case html.TextToken:
			switch {
			case inTitle:
				title.Write(z.Text())
			case depth == 0 && pre > 0:
				body.Write(z.Text())
			case depth == 0:
				body.WriteString(strings.Map(flatten, string(z.Text())))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = tt == html.StartTagToken
			case a == atom.Pre && tt == html.StartTagToken:
				pre++
				body.WriteByte('\n')
			case a == atom.Meta && hasAttr && p.description == "":
				p.description = description(z)
			case hidden[a]:
				if tt == html.StartTagToken {
					depth++
				}
			case blocks[a] && depth == 0:
				body.WriteByte('\n')
			case (a == atom.Td || a == atom.Th || a == atom.Img) && depth == 0:
				body.WriteByte(' ')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = false
			case a == atom.Pre:
				pre = max(pre-1, 0)
				body.WriteByte('\n')
			case hidden[a]:
				if depth > 0 {
					depth--
				}
			case blocks[a] && depth == 0:
				body.WriteByte('\n')
			}
		}
	}
}

// description reads the content of <meta name="description">.
func description(z *html.Tokenizer) string {
	var name, content string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "name":
			name = strings.ToLower(string(val))
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}
	if name != "description" {
		return ""
	}
	return collapse(content)
}

// flatten turns source line breaks into spaces. Outside <pre> only block
// elements break lines.
func flatten(r rune) rune {
	if r == '\n' || r == '\r' {
		return ' '
	}
	return r
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidy collapses whitespace within each line and drops empty lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
