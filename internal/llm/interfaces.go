package llm

import (
	"context"
)

// Temperatures used across the service: extraction wants near-deterministic
// answers, rewriting wants some freedom.
const (
	TemperatureExtraction = 0.1
	TemperatureRewrite    = 0.7
)

// ChatRequest is a single-turn chat completion request.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
}

// ChatClient sends a chat completion request to a text model and returns
// the raw answer text. Implementations must not retry; a failed call
// surfaces to the caller.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// VisionClient sends an image plus a prompt to a vision model and returns
// the raw answer text.
type VisionClient interface {
	ReadImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}
