package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// FakeEmbedder is a deterministic ai.Embedder for tests. Each input text
// maps to a stable unit vector seeded from its content, so equal texts are
// maximally similar and different texts diverge, without any network calls.
type FakeEmbedder struct {
	Dim int
}

// NewFakeEmbedder returns a FakeEmbedder matching the schema's vector
// dimension.
func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{Dim: 768}
}

func (f *FakeEmbedder) Name() string { return "fake-embedder" }

func (f *FakeEmbedder) Register(r api.Registry) {}

func (f *FakeEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		if len(doc.Content) > 0 {
			text = doc.Content[0].Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: f.vectorFor(text),
		})
	}
	return resp, nil
}

func (f *FakeEmbedder) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, f.Dim)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
