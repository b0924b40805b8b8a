package sign

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// extPriority is the fixed probing order for clip containers. The asset
// library stores most clips as lowercase .mp4; the rest are legacy imports.
var extPriority = []string{".mp4", ".MP4", ".avi", ".mov"}

// ResolvedClip pairs a token with the clip file that will play for it.
type ResolvedClip struct {
	Token Token
	Path  string
}

// Resolver maps tokens to clip files under the asset root. Resolution is
// deterministic for a given (token, avatar, root) triple and performs only
// existence checks, never opening the files.
type Resolver struct {
	assetRoot string
	logger    *zap.Logger

	// stat is swappable for tests.
	stat func(name string) (os.FileInfo, error)
}

func NewResolver(assetRoot string, logger *zap.Logger) *Resolver {
	return &Resolver{
		assetRoot: assetRoot,
		logger:    logger,
		stat:      os.Stat,
	}
}

// Resolve probes each token in order against the avatar's clip library:
// first {token}.{ext} directly in the model directory, then the same names
// one level down in a {token}/ subdirectory. The first existing candidate
// wins. Tokens with no candidate are returned in missing, order preserved.
func (r *Resolver) Resolve(tokens []Token, avatar domain.Avatar) ([]ResolvedClip, []Token, error) {
	if !avatar.Valid() {
		return nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported avatar model: %s", avatar), "avatar", string(avatar))
	}

	modelDir := filepath.Join(r.assetRoot, avatar.ModelDir())
	if info, err := r.stat(modelDir); err != nil || !info.IsDir() {
		return nil, nil, apperrors.NewNotFoundError(
			fmt.Sprintf("avatar model directory not found: %s", modelDir), "model_dir", modelDir)
	}

	var resolved []ResolvedClip
	var missing []Token
	for _, token := range tokens {
		path, ok := r.probe(modelDir, token)
		if !ok {
			r.logger.Warn("No clip found for sign", zap.String("token", token))
			missing = append(missing, token)
			continue
		}
		resolved = append(resolved, ResolvedClip{Token: token, Path: path})
	}

	r.logger.Debug("Sign resolution finished",
		zap.Int("resolved", len(resolved)),
		zap.Int("missing", len(missing)),
	)
	return resolved, missing, nil
}

func (r *Resolver) probe(modelDir, token string) (string, bool) {
	for _, ext := range extPriority {
		candidate := filepath.Join(modelDir, token+ext)
		if r.exists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range extPriority {
		candidate := filepath.Join(modelDir, token, token+ext)
		if r.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) exists(path string) bool {
	info, err := r.stat(path)
	return err == nil && !info.IsDir()
}
