package rag

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Generator produces a model response for an assembled message list.
// Defined here so tests can substitute a canned implementation.
type Generator interface {
	Generate(ctx context.Context, system string, messages []*ai.Message) (string, error)
}

// GenkitGenerator calls the configured model through Genkit.
type GenkitGenerator struct {
	g           *genkit.Genkit
	modelName   string
	temperature float64
	maxTokens   int
}

// NewGenkitGenerator wires a Genkit instance to a fully qualified model
// name such as "googleai/gemini-2.5-flash".
func NewGenkitGenerator(g *genkit.Genkit, modelName string, temperature float64, maxTokens int) *GenkitGenerator {
	return &GenkitGenerator{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (gg *GenkitGenerator) Generate(ctx context.Context, system string, messages []*ai.Message) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.modelName),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
		ai.WithConfig(map[string]any{
			"temperature":     gg.temperature,
			"maxOutputTokens": gg.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}
