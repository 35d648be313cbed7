package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Request is one text-generation call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32

	// Schema, when set, asks for a JSON response matching it.
	Schema *genai.Schema
}

// Generator produces text for a Request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenaiGenerator generates text with the Gemini API.
type GenaiGenerator struct {
	models *genai.Models
}

// NewGenaiGenerator creates a Gemini API client authenticated with apiKey.
func NewGenaiGenerator(ctx context.Context, apiKey string) (*GenaiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("completion api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenaiGenerator{models: client.Models}, nil
}

// Generate implements Generator.
func (g *GenaiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// sentimentSchema is the response shape for batch sentiment: an array of
// {id, sentiment} objects.
func sentimentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":        {Type: genai.TypeString},
				"sentiment": {Type: genai.TypeString, Enum: []string{"Positive", "Negative", "Neutral"}},
			},
			Required: []string{"id", "sentiment"},
		},
	}
}
