package transcription

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriber uses the hosted OpenAI audio transcription API.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber backed by the OpenAI API.
func NewOpenAITranscriber(apiKey, model string) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Transcribe uploads the audio file and returns the transcript text.
func (ot *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log.Printf("Transcribing via OpenAI API: %s", audioPath)

	resp, err := ot.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    ot.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %v", err)
	}

	return resp.Text, nil
}
