package domain

// ChunkerName is the registry name of the sliding-window chunker.
const ChunkerName = "chunker"

// PipelineConfig names the post-processors to run, in order, with an
// untyped option map per processor.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns nil for a processor with no options.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the chunker-only pipeline.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(ChunkingSettings{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap})
}

// PipelineConfigFor is a chunker-only pipeline using the given window.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{ChunkerName},
		ProcessorConfigs: map[string]map[string]any{
			ChunkerName: {"chunk_size": c.Size, "overlap": c.Overlap},
		},
	}
}
