package cloud

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultWhisperModel = openai.AudioModelWhisper1
)

// Transcriber converts spoken announcements to text. Gemini is the primary
// engine; when fallback is enabled a Gemini failure is retried once against
// OpenAI Whisper.
type Transcriber struct {
	geminiClient   *genai.Client
	openaiClient   *openai.Client
	geminiModel    string
	enableFallback bool
	logger         *zap.Logger
}

type TranscriberConfig struct {
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	EnableFallback bool
}

func NewTranscriber(ctx context.Context, cfg TranscriberConfig, logger *zap.Logger) (*Transcriber, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.NewServiceError("failed to create Gemini client", "gemini", "init", err)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = defaultGeminiModel
	}

	t := &Transcriber{
		geminiClient:   geminiClient,
		geminiModel:    model,
		enableFallback: cfg.EnableFallback && cfg.OpenAIAPIKey != "",
		logger:         logger,
	}

	if cfg.OpenAIAPIKey != "" {
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		t.openaiClient = &client
		logger.Info("Whisper fallback enabled")
	} else {
		logger.Info("Whisper fallback disabled (no API key)")
	}

	return t, nil
}

// Transcribe returns the spoken text of an audio clip.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType, filename string) (string, error) {
	text, geminiErr := t.transcribeWithGemini(ctx, audio, mimeType)
	if geminiErr == nil {
		return text, nil
	}

	classified := apperrors.ClassifyExternal("gemini", "transcribe", geminiErr)
	if !t.enableFallback || t.openaiClient == nil {
		return "", classified
	}

	t.logger.Warn("Gemini transcription failed, falling back to Whisper",
		zap.String("code", classified.Code),
		zap.Error(geminiErr),
	)

	text, whisperErr := t.transcribeWithWhisper(ctx, audio, mimeType, filename)
	if whisperErr != nil {
		return "", apperrors.ClassifyExternal("whisper", "transcribe", whisperErr)
	}
	return text, nil
}

// DetectLanguage returns the ISO 639-1 code of the text's language, or "en"
// when detection produces nothing usable.
func (t *Transcriber) DetectLanguage(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Identify the language of the following text. Respond with only the ISO 639-1 code, nothing else.\n\n%s", text)

	resp, err := t.geminiClient.Models.GenerateContent(ctx, t.geminiModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, nil)
	if err != nil {
		return "", apperrors.ClassifyExternal("gemini", "detect_language", err)
	}

	code := strings.ToLower(strings.TrimSpace(extractText(resp)))
	if len(code) < 2 || len(code) > 3 {
		t.logger.Warn("Unusable language detection result, assuming English", zap.String("result", code))
		return "en", nil
	}
	return code, nil
}

func (t *Transcriber) transcribeWithGemini(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := t.geminiClient.Models.GenerateContent(ctx, t.geminiModel, []*genai.Content{
		{Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
			{Text: "Transcribe this railway announcement audio verbatim. Respond with only the transcript."},
		}},
	}, nil)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty transcript")
	}
	return text, nil
}

func (t *Transcriber) transcribeWithWhisper(ctx context.Context, audio []byte, mimeType, filename string) (string, error) {
	resp, err := t.openaiClient.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: defaultWhisperModel,
		File:  openai.File(bytes.NewReader(audio), filename, mimeType),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
