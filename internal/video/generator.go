package video

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/sign"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// clipJoiner is the concatenation engine boundary.
type clipJoiner interface {
	Concat(ctx context.Context, inputs []string, outputPath string) (float64, error)
}

// GenerateResult is the pipeline entry-point response for a fresh video.
type GenerateResult struct {
	TempVideoID  string
	PreviewRef   domain.AssetRef
	Duration     float64
	SignsUsed    []string
	SignsSkipped []string
}

// SaveResult is the response for promoting a preview to permanent storage.
type SaveResult struct {
	VideoRef domain.AssetRef
	Filename string
}

// Generator drives the tokenize-resolve-concatenate-stage pipeline. It is
// the surface the transport layer calls into.
type Generator struct {
	resolver  *sign.Resolver
	joiner    clipJoiner
	lifecycle *Manager
	logger    *zap.Logger
}

func NewGenerator(resolver *sign.Resolver, joiner clipJoiner, lifecycle *Manager, logger *zap.Logger) *Generator {
	return &Generator{
		resolver:  resolver,
		joiner:    joiner,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Generate converts text into a staged preview video. Tokens with no clip
// are skipped and reported; the pipeline proceeds as long as at least one
// token resolved.
func (g *Generator) Generate(ctx context.Context, text string, avatar domain.Avatar, userID int) (*GenerateResult, error) {
	if !avatar.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported avatar model: %s", avatar), "avatar", string(avatar))
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text cannot be empty", "text", text)
	}

	tokens, err := sign.Tokenize(text)
	if err != nil {
		return nil, err
	}

	resolved, missing, err := g.resolver.Resolve(tokens, avatar)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, apperrors.New(
			fmt.Sprintf("no clips found for any signs, missing: %v", missing),
			apperrors.CodeResolution, 400, map[string]any{"missing": missing})
	}

	inputs := make([]string, len(resolved))
	used := make([]string, len(resolved))
	for i, clip := range resolved {
		inputs[i] = clip.Path
		used[i] = clipStem(clip.Path)
	}

	id, _, duration, err := g.lifecycle.CreateTemporary(ctx, func(ctx context.Context, outputPath string) (float64, error) {
		return g.joiner.Concat(ctx, inputs, outputPath)
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("ISL video generated",
		zap.String("temp_video_id", id),
		zap.Int("user_id", userID),
		zap.Int("signs_used", len(used)),
		zap.Int("signs_skipped", len(missing)),
	)

	return &GenerateResult{
		TempVideoID:  id,
		PreviewRef:   domain.NewPreviewRef(id),
		Duration:     duration,
		SignsUsed:    used,
		SignsSkipped: missing,
	}, nil
}

// Save promotes a preview video into the user's permanent storage.
func (g *Generator) Save(tempID string, userID int) (*SaveResult, error) {
	ref, filename, err := g.lifecycle.Promote(tempID, userID)
	if err != nil {
		return nil, err
	}
	return &SaveResult{VideoRef: ref, Filename: filename}, nil
}

// Cleanup best-effort deletes a preview video; reports whether a file was
// removed.
func (g *Generator) Cleanup(tempID string) bool {
	return g.lifecycle.Cleanup(tempID)
}

// clipStem mirrors the reported sign name to the clip's base filename
// without extension, which by the asset layout contract is the token.
func clipStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
