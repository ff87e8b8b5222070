package transcription

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

// GoogleSpeechTranscriber uses the Google Cloud Speech-to-Text API with a
// service-account credentials file. Voice notes are short enough for the
// synchronous Recognize endpoint.
type GoogleSpeechTranscriber struct {
	service  *speech.Service
	language string
	tempDir  string
}

// NewGoogleSpeechTranscriber creates a transcriber from a service-account
// credentials file.
func NewGoogleSpeechTranscriber(credentialsFile, language, tempDir string) (*GoogleSpeechTranscriber, error) {
	ctx := context.Background()

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(b, speech.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := speech.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Speech service: %v", err)
	}

	if language == "" {
		language = "en-US"
	}

	return &GoogleSpeechTranscriber{
		service:  srv,
		language: language,
		tempDir:  tempDir,
	}, nil
}

// Transcribe normalizes the audio to 16kHz mono PCM and runs a synchronous
// recognition request.
func (gt *GoogleSpeechTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log.Printf("Transcribing via Google Speech-to-Text: %s", audioPath)

	normalizedPath, err := NormalizeAudio(ctx, audioPath, gt.tempDir)
	if err != nil {
		return "", fmt.Errorf("audio normalization failed: %v", err)
	}
	defer os.Remove(normalizedPath)

	data, err := os.ReadFile(normalizedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read normalized audio: %v", err)
	}

	resp, err := gt.service.Speech.Recognize(&speech.RecognizeRequest{
		Config: &speech.RecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: 16000,
			LanguageCode:    gt.language,
		},
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google speech recognition failed: %v", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}

	return strings.Join(parts, " "), nil
}
