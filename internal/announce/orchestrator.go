package announce

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/video"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// Request carries the train data for one announcement generation.
type Request struct {
	TrainNumber string
	TrainName   string
	FromStation string
	ToStation   string
	Platform    int
	Category    string
	Avatar      domain.Avatar
	UserID      int

	// OnVideoStart, when set, is invoked once all announcement texts are
	// prepared and any record is persisted, immediately before clip
	// generation begins. The live queue uses it to publish the
	// generating_video transition at the phase boundary.
	OnVideoStart func()
}

// Result reports the orchestration outcome. Success covers the
// announcement-text artifact: a record with failed video generation is still
// Success=true with Error populated (partial outcome), which the live queue
// downgrades to a hard error on its side.
type Result struct {
	Success        bool
	AnnouncementID *int64
	Name           string
	TextEnglish    string
	TextHindi      *string
	TextMarathi    *string
	TextGujarati   *string
	TempVideoID    string
	PreviewRef     string
	SignsUsed      []string
	SignsSkipped   []string
	Error          string
}

// templateSource and recordSink are the persistence boundaries; the postgres
// store satisfies both.
type templateSource interface {
	GetByCategory(ctx context.Context, category string) (*domain.AnnouncementTemplate, error)
	GetRouteTranslations(ctx context.Context, trainNumber string) (*domain.RouteTranslation, error)
}

type recordSink interface {
	Create(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error)
	UpdateVideoRef(ctx context.Context, id int64, ref domain.AssetRef) error
}

type videoGenerator interface {
	Generate(ctx context.Context, text string, avatar domain.Avatar, userID int) (*video.GenerateResult, error)
}

// Orchestrator walks one announcement through template lookup, placeholder
// substitution, optional record persistence, and ISL video generation.
type Orchestrator struct {
	templates templateSource
	records   recordSink
	videos    videoGenerator
	logger    *zap.Logger
}

func NewOrchestrator(templates templateSource, records recordSink, videos videoGenerator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		templates: templates,
		records:   records,
		videos:    videos,
		logger:    logger,
	}
}

// Generate produces the per-language announcement texts and the ISL video.
// With persistRecord=false (live queue) no general-announcement record is
// written.
func (o *Orchestrator) Generate(ctx context.Context, req Request, persistRecord bool) *Result {
	o.logger.Info("Generating train announcement",
		zap.String("train_number", req.TrainNumber),
		zap.String("category", req.Category),
	)

	template, err := o.templates.GetByCategory(ctx, req.Category)
	if err != nil {
		return &Result{Error: fmt.Sprintf("template lookup failed: %v", err)}
	}
	if template == nil {
		return &Result{Error: fmt.Sprintf("no template found for category: %s", req.Category)}
	}

	translations, err := o.templates.GetRouteTranslations(ctx, req.TrainNumber)
	if err != nil {
		o.logger.Warn("Route translation lookup failed, non-English texts skipped",
			zap.String("train_number", req.TrainNumber), zap.Error(err))
		translations = nil
	}

	english := o.substitute(template.English, req.TrainNumber, req.TrainName,
		req.FromStation, req.ToStation, req.Platform)

	var hindi, marathi, gujarati *string
	if translations != nil {
		if template.Hindi != "" {
			text := o.substitute(template.Hindi, req.TrainNumber,
				fallback(translations.TrainNameHi, req.TrainName),
				fallback(translations.FromStationHi, req.FromStation),
				fallback(translations.ToStationHi, req.ToStation),
				req.Platform)
			hindi = &text
		}
		if template.Marathi != "" {
			text := o.substitute(template.Marathi, req.TrainNumber,
				fallback(translations.TrainNameMr, req.TrainName),
				fallback(translations.FromStationMr, req.FromStation),
				fallback(translations.ToStationMr, req.ToStation),
				req.Platform)
			marathi = &text
		}
		if template.Gujarati != "" {
			text := o.substitute(template.Gujarati, req.TrainNumber,
				fallback(translations.TrainNameGu, req.TrainName),
				fallback(translations.FromStationGu, req.FromStation),
				fallback(translations.ToStationGu, req.ToStation),
				req.Platform)
			gujarati = &text
		}
	}

	name := fmt.Sprintf("%s %s - %s", req.TrainNumber, req.TrainName, req.Category)
	result := &Result{
		Success:      true,
		Name:         name,
		TextEnglish:  english,
		TextHindi:    hindi,
		TextMarathi:  marathi,
		TextGujarati: gujarati,
	}

	var record *domain.Announcement
	if persistRecord {
		record, err = o.records.Create(ctx, &domain.Announcement{
			Name:         name,
			Category:     req.Category,
			Avatar:       req.Avatar,
			TextEnglish:  english,
			TextHindi:    hindi,
			TextMarathi:  marathi,
			TextGujarati: gujarati,
		})
		if err != nil {
			return &Result{Error: fmt.Sprintf("failed to create announcement record: %v", err)}
		}
		result.AnnouncementID = &record.ID
	}

	if req.OnVideoStart != nil {
		req.OnVideoStart()
	}

	videoResult, err := o.videos.Generate(ctx, english, req.Avatar, req.UserID)
	if err != nil {
		o.logger.Error("ISL video generation failed",
			zap.String("train_number", req.TrainNumber),
			zap.String("code", apperrors.CodeOf(err)),
			zap.Error(err),
		)
		result.Error = fmt.Sprintf("announcement created but video generation failed: %v", err)
		return result
	}

	result.TempVideoID = videoResult.TempVideoID
	result.PreviewRef = videoResult.PreviewRef.String()
	result.SignsUsed = videoResult.SignsUsed
	result.SignsSkipped = videoResult.SignsSkipped

	if record != nil {
		if err := o.records.UpdateVideoRef(ctx, record.ID, videoResult.PreviewRef); err != nil {
			o.logger.Error("Failed to attach video reference to announcement",
				zap.Int64("announcement_id", record.ID), zap.Error(err))
		}
	}

	return result
}

var placeholderPattern = regexp.MustCompile(`\{[^}]+\}`)

// substitute replaces the known placeholders with train data. Unknown
// placeholders stay in the text and are logged; one stray placeholder never
// fails the whole announcement.
func (o *Orchestrator) substitute(templateText, trainNumber, trainName, fromStation, toStation string, platform int) string {
	values := map[string]string{
		"{train_number}":      trainNumber,
		"{train_name}":        trainName,
		"{from_station}":      fromStation,
		"{to_station}":        toStation,
		"{from_station_name}": fromStation,
		"{to_station_name}":   toStation,
		"{start_station}":     fromStation,
		"{end_station}":       toStation,
		"{platform}":          strconv.Itoa(platform),
	}

	out := templateText
	for _, placeholder := range placeholderPattern.FindAllString(templateText, -1) {
		value, ok := values[placeholder]
		if !ok {
			o.logger.Warn("Unknown placeholder in template", zap.String("placeholder", placeholder))
			continue
		}
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

func fallback(value, alt string) string {
	if value == "" {
		return alt
	}
	return value
}
