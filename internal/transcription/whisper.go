package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WhisperTranscriber runs OpenAI Whisper locally through its Python CLI.
type WhisperTranscriber struct {
	modelName string
	language  string
	tempDir   string
}

// NewWhisperTranscriber creates a transcriber using Python Whisper.
func NewWhisperTranscriber(model, language, tempDir string) (*WhisperTranscriber, error) {
	if model == "" {
		model = "small"
	}

	log.Printf("Initializing Python Whisper with model: %s", model)
	log.Printf("Note: Whisper availability will be verified on first transcription")

	return &WhisperTranscriber{
		modelName: model,
		language:  language,
		tempDir:   tempDir,
	}, nil
}

// Transcribe processes an audio file and returns the transcript text.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log.Printf("Transcribing with Python Whisper: %s", audioPath)

	normalizedPath, err := NormalizeAudio(ctx, audioPath, wt.tempDir)
	if err != nil {
		return "", fmt.Errorf("audio normalization failed: %v", err)
	}
	defer os.Remove(normalizedPath)

	// Directory for Whisper's JSON output
	outDir, err := os.MkdirTemp(wt.tempDir, "whisper_output_")
	if err != nil {
		return "", fmt.Errorf("failed to create whisper output dir: %v", err)
	}
	defer os.RemoveAll(outDir)

	absAudioPath, err := filepath.Abs(normalizedPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %v", err)
	}

	args := []string{"-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False", // CPU compatibility
	}
	if wt.language != "" {
		args = append(args, "--language", wt.language)
	}

	cmd := exec.CommandContext(ctx, "python", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("whisper transcription cancelled: %v", ctx.Err())
		}
		return "", fmt.Errorf("whisper transcription failed: %v\nOutput: %s", err, string(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(normalizedPath), filepath.Ext(normalizedPath))
	jsonPath := filepath.Join(outDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("failed to read whisper output: %v", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return "", fmt.Errorf("failed to parse whisper JSON: %v", err)
	}

	text := strings.TrimSpace(out.Text)
	log.Printf("Whisper transcription completed: %d segments", len(out.Segments))
	return text, nil
}

// whisperOutput matches Python Whisper's JSON output format
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
