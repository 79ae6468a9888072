package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// stubProcessor returns fixed chunks, or passes its input through when
// chunks is nil.
type stubProcessor struct {
	name   string
	chunks []domain.Chunk
	err    error
	seen   []domain.Chunk
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.Document, in []domain.Chunk) ([]domain.Chunk, error) {
	s.seen = in
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return in, nil
}

func testDoc() *domain.Document {
	return &domain.Document{ID: "doc-7", Segments: []string{"some text"}}
}

func TestPipeline_AddAndLen(t *testing.T) {
	p := NewPipeline()
	assert.Equal(t, 0, p.Len())
	p.Add(&stubProcessor{name: "a"})
	p.Add(&stubProcessor{name: "b"})
	assert.Equal(t, 2, p.Len())
}

func TestPipeline_Process_Rejects(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		_, err := NewPipeline(&stubProcessor{name: "a"}).Process(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no processors", func(t *testing.T) {
		_, err := NewPipeline().Process(context.Background(), testDoc())
		assert.ErrorIs(t, err, errNoProcessors)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewPipeline(&stubProcessor{name: "a"}).Process(ctx, testDoc())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipeline_Process_StageError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&stubProcessor{name: "splitter", err: boom})

	_, err := p.Process(context.Background(), testDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "processor splitter")
}

func TestPipeline_Process_ChainsStages(t *testing.T) {
	first := &stubProcessor{name: "first", chunks: []domain.Chunk{{ID: "c1", Content: "one"}}}
	second := &stubProcessor{name: "second"}

	chunks, err := NewPipeline(first, second).Process(context.Background(), testDoc())
	require.NoError(t, err)

	assert.Nil(t, first.seen)
	assert.Equal(t, first.chunks, second.seen)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].ID)
}

func TestPipeline_Process_NormalisesChunks(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "a", chunks: []domain.Chunk{
		{ID: "c1", Content: "alpha", Position: 4},
		{ID: "c2", Content: "  \n\t"},
		{ID: "c3", Content: "gamma", DocumentID: "other", Position: 9},
	}})

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for i, c := range chunks {
		assert.Equal(t, "doc-7", c.DocumentID)
		assert.Equal(t, i, c.Position)
	}
	assert.Equal(t, "c1", chunks[0].ID)
	assert.Equal(t, "c3", chunks[1].ID)
}

func TestPipeline_Process_AllBlank(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "a", chunks: []domain.Chunk{{Content: " "}}})

	chunks, err := p.Process(context.Background(), testDoc())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
