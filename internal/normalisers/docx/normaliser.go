// Package docx extracts Word documents as a single body segment.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/normalisers/docutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	bodyPart = "word/document.xml"
	corePart = "docProps/core.xml"

	// maxPartSize caps how much of one decompressed part is read.
	maxPartSize = 64 << 20
)

// Normaliser extracts paragraph text from Word documents.
type Normaliser struct{}

// New creates a DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the formats this normaliser handles.
func (n *Normaliser) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatDOCX}
}

// Normalise returns the body as one segment with a line per non-blank
// paragraph. The title is dc:title from the core properties when set.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrExtractionFailed, err)
	}

	body, err := readPart(archive, bodyPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, bodyPart, err)
	}

	title := coreTitle(archive)
	if title == "" {
		title = docutil.TitleFromFilename(raw.Filename)
	}

	text := strings.Join(paragraphs(body), "\n")
	doc := docutil.NewDocument(raw, domain.FormatDOCX, title, []string{text})
	return &driven.NormaliseResult{Document: doc}, nil
}

func readPart(archive *zip.Reader, name string) ([]byte, error) {
	f, err := archive.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPartSize))
}

// paragraphs walks WordprocessingML and returns the text of each w:p,
// table cells included, with trailing blanks trimmed. Tabs and breaks
// inside a paragraph are kept as \t and \n. A malformed tail ends the
// walk with whatever was read so far.
func paragraphs(body []byte) []string {
	var (
		out     []string
		current strings.Builder
		inText  bool
	)
	flush := func() {
		for line := range strings.SplitSeq(current.String(), "\n") {
			if strings.TrimSpace(line) != "" {
				out = append(out, strings.TrimRight(line, " \t"))
			}
		}
		current.Reset()
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	flush()
	return out
}

// coreTitle returns "" when the core properties are missing or unreadable.
func coreTitle(archive *zip.Reader) string {
	data, err := readPart(archive, corePart)
	if err != nil {
		return ""
	}
	var props struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}
