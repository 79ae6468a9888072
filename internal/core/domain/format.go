package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the closed set of source formats the loader dispatch accepts.
type Format string

// Supported formats, keyed by lower-case file extension.
const (
	FormatPDF      Format = ".pdf"
	FormatDOCX     Format = ".docx"
	FormatHTML     Format = ".html"
	FormatMarkdown Format = ".md"
	FormatText     Format = ".txt"
)

// SupportedFormats returns every accepted format in a stable order.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatHTML, FormatMarkdown, FormatText}
}

// IsValid returns true if the format is in the supported set.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatHTML, FormatMarkdown, FormatText:
		return true
	default:
		return false
	}
}

// String returns the extension form of the format.
func (f Format) String() string {
	return string(f)
}

// MIMEType returns the content type associated with the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html"
	case FormatMarkdown:
		return "text/markdown"
	case FormatText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat resolves the format of a filename from its extension.
// Unknown extensions return an *UnsupportedFormatError.
func ParseFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".htm" {
		ext = string(FormatHTML)
	}
	f := Format(ext)
	if !f.IsValid() {
		return "", &UnsupportedFormatError{Extension: ext, Supported: SupportedFormats()}
	}
	return f, nil
}

// UnsupportedFormatError reports a file whose extension has no extractor.
type UnsupportedFormatError struct {
	// Extension is the rejected extension, empty when the file had none.
	Extension string

	// Supported lists the accepted formats.
	Supported []Format
}

// Error implements error.
func (e *UnsupportedFormatError) Error() string {
	names := make([]string, len(e.Supported))
	for i, f := range e.Supported {
		names[i] = string(f)
	}
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported format %s: supported formats are %s", ext, strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrUnsupportedFormat) match.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
