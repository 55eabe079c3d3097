package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultVisionModel is the Gemini model used for receipt and odometer
// images.
const DefaultVisionModel = "gemini-2.5-flash"

// GeminiVision reads images with Gemini. The genai client resolves its
// credentials from the environment (GEMINI_API_KEY or application default
// credentials); a new client is created per call so the type stays
// stateless between invocations.
type GeminiVision struct {
	model string
}

// NewGeminiVision creates a vision client for the given model, defaulting
// to DefaultVisionModel when empty.
func NewGeminiVision(model string) *GeminiVision {
	if model == "" {
		model = DefaultVisionModel
	}
	return &GeminiVision{model: model}
}

// ReadImage implements VisionClient.
func (g *GeminiVision) ReadImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("ReadImage: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ReadImage: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("ReadImage: empty response from model")
	}

	return rawText, nil
}

var _ VisionClient = (*GeminiVision)(nil)
