package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator calls the Gemini completion API with the decoding knobs the
// pipeline exposes (max tokens, temperature, stop sequences).
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Generator, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32, stop []string) (string, error) {
	slog.DebugContext(ctx, "generating completion", "model", g.model, "max_tokens", maxTokens, "temperature", temperature)

	gm := g.client.GenerativeModel(g.model)
	gm.SetMaxOutputTokens(int32(maxTokens))
	gm.SetTemperature(temperature)
	gm.StopSequences = stop

	res, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("generation api returned no candidates")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}
