package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini is a Generator backed by the Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini generator with the given API key and model name
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying client
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) generativeModel(system string, jsonOutput bool) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if jsonOutput {
		model.ResponseMIMEType = "application/json"
	}
	return model
}

// Text returns a free-text completion
func (g *Gemini) Text(ctx context.Context, system, prompt string) (string, error) {
	model := g.generativeModel(system, false)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// Stream returns a free-text completion, invoking onDelta per chunk
func (g *Gemini) Stream(ctx context.Context, system, prompt string, onDelta func(delta string)) (string, error) {
	model := g.generativeModel(system, false)
	iter := model.GenerateContentStream(ctx, genai.Text(prompt))

	var full strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if full.Len() > 0 {
				// A truncated stream still carries usable text.
				return full.String(), nil
			}
			return "", err
		}
		chunk, err := responseText(resp)
		if err != nil {
			continue
		}
		full.WriteString(chunk)
		if onDelta != nil {
			onDelta(chunk)
		}
	}
	return full.String(), nil
}

// Action returns a structured decision coerced from JSON model output
func (g *Gemini) Action(ctx context.Context, system, prompt string) (Action, error) {
	model := g.generativeModel(system, true)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Action{}, err
	}
	raw, err := responseText(resp)
	if err != nil {
		return Action{}, err
	}
	return ParseAction(raw)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return sb.String(), nil
}
