// Package embedder provides interfaces and implementations for text embedding.
package embedder

import (
	"context"
	"sync"
)

// Embedder defines the interface for text embedding services.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	// An empty or whitespace-only input yields a degenerate zero vector
	// rather than an error, since retrieval depends on always having a
	// query vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple text inputs.
	// Returns a slice of embeddings in the same order as the input texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// ModelConfig holds configuration for a specific embedding model.
type ModelConfig struct {
	Dimension     int // Embedding dimension
	ContextLength int // Max tokens the model can process
}

// KnownModels maps embedding model names to their configurations.
var KnownModels = map[string]ModelConfig{
	"nomic-embed-text": {
		Dimension:     768,
		ContextLength: 8192,
	},
	"mxbai-embed-large": {
		Dimension:     1024,
		ContextLength: 512,
	},
	"all-minilm": {
		Dimension:     384,
		ContextLength: 256,
	},
	"snowflake-arctic-embed": {
		Dimension:     1024,
		ContextLength: 8192,
	},
}

// GetModelConfig returns the configuration for a model, or defaults if unknown.
func GetModelConfig(modelName string) ModelConfig {
	if cfg, ok := KnownModels[modelName]; ok {
		return cfg
	}
	// Conservative defaults for unknown models
	return ModelConfig{
		Dimension:     768,
		ContextLength: 2048,
	}
}

var (
	defaultMu       sync.Mutex
	defaultEmbedder Embedder
)

// SetDefault installs the process-wide embedder. It is called once during
// startup; later calls replace the handle (useful in tests).
func SetDefault(e Embedder) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEmbedder = e
}

// Default returns the process-wide embedder, lazily constructing an
// OllamaEmbedder with default settings on first use. The handle is created
// at most once and is safe for concurrent use afterward.
func Default() Embedder {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEmbedder == nil {
		defaultEmbedder = NewOllamaEmbedder(OllamaConfig{})
	}
	return defaultEmbedder
}
