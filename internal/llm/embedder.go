// Package llm provides LLM and embedding services using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/gmviana/studysearch-go/internal/config"
)

// embedBatchSize bounds a single provider call. Ollama degrades on large
// document batches, so EmbedBatch splits its input into sub-batches.
const embedBatchSize = 16

// Embedder wraps langchaingo embeddings with dimension validation.
type Embedder struct {
	model     embeddings.Embedder
	dimension int
	modelName string
}

// NewEmbedder creates an embedder based on configuration.
func NewEmbedder(cfg config.Config) (*Embedder, error) {
	var model embeddings.Embedder
	var err error

	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		llm, ollamaErr := ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if ollamaErr != nil {
			return nil, fmt.Errorf("create ollama client: %w", ollamaErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, openaiErr := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if openaiErr != nil {
			return nil, fmt.Errorf("create openai client: %w", openaiErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}

	return &Embedder{
		model:     model,
		dimension: cfg.EmbedDimension,
		modelName: cfg.EmbedModel,
	}, nil
}

// Embed generates an embedding vector for a single text, typically a query.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.model.EmbedQuery(ctx, text)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "text_len", len(text), "duration_ms", duration.Milliseconds(), "error", err)
		return nil, fmt.Errorf("embed: %w", err)
	}

	if err := e.checkDimension(vector); err != nil {
		return nil, err
	}

	slog.Debug("embedding complete", "model", e.modelName, "text_len", len(text), "duration_ms", duration.Milliseconds())
	return vector, nil
}

// EmbedBatch generates embeddings for multiple texts, calling the provider
// in sub-batches of at most embedBatchSize. The result order matches texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors := make([][]float32, 0, len(texts))

	for lo := 0; lo < len(texts); lo += embedBatchSize {
		hi := lo + embedBatchSize
		if hi > len(texts) {
			hi = len(texts)
		}

		batch, err := e.model.EmbedDocuments(ctx, texts[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", lo, hi, err)
		}
		if len(batch) != hi-lo {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors, want %d", lo, hi, len(batch), hi-lo)
		}
		vectors = append(vectors, batch...)
	}

	for i, v := range vectors {
		if err := e.checkDimension(v); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
	}

	slog.Debug("batch embedding complete", "model", e.modelName, "texts", len(texts), "duration_ms", time.Since(start).Milliseconds())
	return vectors, nil
}

func (e *Embedder) checkDimension(vector []float32) error {
	if len(vector) != e.dimension {
		return fmt.Errorf("dimension mismatch: got %d, want %d", len(vector), e.dimension)
	}
	return nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.modelName
}

// Dimension returns the expected embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}
