// Package docutil holds the document assembly shared by the normalisers.
package docutil

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Metadata keys set on every normalised document.
const (
	MetaMIMEType = "mime_type"
	MetaFormat   = "format"
)

var formatNames = map[domain.Format]string{
	domain.FormatPDF:      "pdf",
	domain.FormatDOCX:     "docx",
	domain.FormatHTML:     "html",
	domain.FormatMarkdown: "markdown",
	domain.FormatText:     "text",
}

var filenameSeparators = strings.NewReplacer("_", " ", "-", " ")

// TitleFromFilename turns "/notes/q3_report-final.md" into "q3 report final".
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return filenameSeparators.Replace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// NewDocument builds the normalised document for raw. The caller's
// metadata is copied, never aliased.
func NewDocument(raw *domain.RawDocument, format domain.Format, title string, segments []string) domain.Document {
	meta := maps.Clone(raw.Metadata)
	if meta == nil {
		meta = make(map[string]any, 2)
	}
	meta[MetaMIMEType] = format.MIMEType()
	meta[MetaFormat] = formatNames[format]

	return domain.Document{
		Filename: raw.Filename,
		Format:   format,
		Title:    title,
		Segments: segments,
		Metadata: meta,
	}
}
