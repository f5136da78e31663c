package adapter

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"ninjserv/pkg/errors"
	"ninjserv/pkg/logger"
)

// EmbeddingDim is the fixed dimension of every stored vector. All vectors in
// the message index must share it.
const EmbeddingDim = 1536

const embedTimeout = 15 * time.Second

// Embedder turns text into a fixed-length vector using the OpenAI embeddings API.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

// NewEmbedder creates a new embedding adapter
func NewEmbedder(client *openai.Client, model string) *Embedder {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &Embedder{
		client: client,
		model:  openai.EmbeddingModel(model),
		logger: logger.Get(),
	}
}

// Embed returns the embedding vector for text. The call carries a bounded
// timeout; a stalled provider is reported as an embedding error, never a hang.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		e.logger.Warn("Embedding request failed",
			zap.String("model", string(e.model)),
			zap.Error(err),
		)
		return nil, errors.NewEmbeddingFailed(string(e.model), err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.NewEmbeddingFailed(string(e.model), nil)
	}

	vector := resp.Data[0].Embedding
	if len(vector) != EmbeddingDim {
		return nil, errors.NewEmbeddingDimension(EmbeddingDim, len(vector))
	}

	return vector, nil
}
