// README: Gemini-backed service-type classifier.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrUnknownService = errors.New("classifier returned an unknown service type")

// minConfidence is the lowest model confidence accepted as an answer.
const minConfidence = 0.5

// GeminiClassifier implements ServiceClassifier using Google's Gemini models.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClassifier(ctx context.Context, apiKey string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.1)
	model.SystemInstruction = genai.NewUserContent(genai.Text(buildSystemPrompt()))

	return &GeminiClassifier{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClassifier) Close() {
	c.client.Close()
}

func (c *GeminiClassifier) ClassifyService(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text("Job description: "+description))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return parseClassification(text.String())
}

func parseClassification(raw string) (string, error) {
	clean := cleanJSONString(raw)
	var result ClassificationResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	if result.Confidence < minConfidence {
		return "", nil
	}
	service := normalizeService(result.ServiceType)
	if service == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, result.ServiceType)
	}
	return service, nil
}

func buildSystemPrompt() string {
	return fmt.Sprintf(`Role: You classify landscaping job requests for a marketplace.
Allowed service types: %s

Reply with JSON only:
{"service_type": "<one allowed value>", "confidence": <0.0-1.0>}

If the request does not fit any allowed type, reply with the closest one and a confidence below 0.5.`,
		strings.Join(ServiceTypes, ", "))
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
