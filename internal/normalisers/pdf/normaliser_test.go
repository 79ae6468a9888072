package pdf

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name    string
	args    []string
	content []byte
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	// The input path precedes the trailing "-" stdout marker.
	if len(args) >= 2 {
		m.content, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, execRunner{}, normaliser.runner)
	assert.True(t, normaliser.lookPath)
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatPDF}, New().SupportedFormats())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("test output")}
	normaliser := NewWithRunner(runner)
	require.NotNil(t, normaliser)
	assert.Equal(t, runner, normaliser.runner)
	assert.False(t, normaliser.lookPath)
}

func TestNormalise_OneSegmentPerPage(t *testing.T) {
	runner := &mockRunner{
		output: []byte("Annual Report\n\nPage one text.\n\fPage two text.\n\fPage three text.\n\f"),
	}
	raw := &domain.RawDocument{
		Filename: "/uploads/annual_report.pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
		Metadata: map[string]any{"uploaded_by": "cli"},
	}

	result, err := NewWithRunner(runner).Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, domain.FormatPDF, doc.Format)
	assert.Equal(t, "Annual Report", doc.Title)
	assert.Equal(t, []string{"Annual Report\n\nPage one text.", "Page two text.", "Page three text."}, doc.Segments)
	assert.Equal(t, 3, doc.Metadata["page_count"])
	assert.Equal(t, "application/pdf", doc.Metadata["mime_type"])
	assert.Equal(t, "cli", doc.Metadata["uploaded_by"])

	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, raw.Content, runner.content)
}

func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}

	_, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{Filename: "broken.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{""}},
		{"single page without feed", "only page", []string{"only page"}},
		{"trailing feed dropped", "a\fb\f", []string{"a", "b"}},
		{"blank middle page kept", "a\f\fc\f", []string{"a", "", "c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, splitPages(tc.input))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		expected string
	}{
		{
			name:     "first line as title",
			content:  "Document Title\n\nSome content here.",
			filename: "/doc.pdf",
			expected: "Document Title",
		},
		{
			name:     "skip empty lines",
			content:  "\n\n\nActual Title\nContent",
			filename: "/doc.pdf",
			expected: "Actual Title",
		},
		{
			name:     "fallback to filename",
			content:  "",
			filename: "/path/to/my_document.pdf",
			expected: "my document",
		},
		{
			name:     "skip very long first line",
			content:  string(make([]byte, 250)) + "\nShort Title\nContent",
			filename: "/doc.pdf",
			expected: "Short Title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content, tc.filename))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

// Integration test - only runs if pdftotext is available.
func TestNormalise_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "garbage.pdf",
		Content:  []byte("this is not a pdf"),
	})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
