package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v3"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

const translateConcurrency = 3

// Translation is one target-language outcome. A failed language keeps the
// source text and records the error instead of failing the whole batch.
type Translation struct {
	Language string
	Text     string
	Err      error
}

// Translator wraps the Cloud Translation v3 API.
type Translator struct {
	service *translate.Service
	parent  string
	logger  *zap.Logger
}

func NewTranslator(ctx context.Context, creds *google.Credentials, projectID string, logger *zap.Logger) (*Translator, error) {
	service, err := translate.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, apperrors.NewServiceError("failed to create translation client", "translate", "init", err)
	}
	return &Translator{
		service: service,
		parent:  fmt.Sprintf("projects/%s/locations/global", projectID),
		logger:  logger,
	}, nil
}

// TranslateText translates one source text into a single target language.
func (t *Translator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.service.Projects.Locations.TranslateText(t.parent, &translate.TranslateTextRequest{
		Contents:           []string{text},
		SourceLanguageCode: sourceLang,
		TargetLanguageCode: targetLang,
		MimeType:           "text/plain",
	}).Context(ctx).Do()
	if err != nil {
		return "", apperrors.ClassifyExternal("translate", "translate_text", err)
	}
	if len(resp.Translations) == 0 {
		return "", apperrors.NewServiceError("translation response was empty", "translate", "translate_text", nil)
	}
	return resp.Translations[0].TranslatedText, nil
}

// TranslateAll fans the source text out to every target language with
// bounded concurrency. Results keep the order of targetLangs.
func (t *Translator) TranslateAll(ctx context.Context, text, sourceLang string, targetLangs []string) []Translation {
	results := make([]Translation, len(targetLangs))
	resultsMu := sync.Mutex{}

	p := pool.New().WithMaxGoroutines(translateConcurrency)
	for idx, lang := range targetLangs {
		idx, lang := idx, lang
		p.Go(func() {
			translated, err := t.TranslateText(ctx, text, sourceLang, lang)
			if err != nil {
				t.logger.Warn("Translation failed, keeping source text",
					zap.String("target_language", lang),
					zap.String("code", apperrors.CodeOf(err)),
					zap.Error(err),
				)
				translated = text
			}
			resultsMu.Lock()
			results[idx] = Translation{Language: lang, Text: translated, Err: err}
			resultsMu.Unlock()
		})
	}
	p.Wait()

	return results
}
