package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AssetRefKind tags how a stored video reference is addressed. The kind is
// decided once when the reference is written, so readers never have to sniff
// path prefixes.
type AssetRefKind string

const (
	// AssetAPIServed is a durable reference served through the videos API,
	// e.g. /api/v1/isl-videos/serve/{user}/{filename}.
	AssetAPIServed AssetRefKind = "api"
	// AssetPreview addresses a temporary staging video by its identifier.
	AssetPreview AssetRefKind = "preview"
	// AssetAbsolute is an absolute filesystem path.
	AssetAbsolute AssetRefKind = "absolute"
	// AssetRelative is a path relative to the permanent storage root.
	AssetRelative AssetRefKind = "relative"
)

// AssetRef is a tagged video reference. Value carries the kind-specific
// address: the API URL path, the staging id, or a filesystem path.
type AssetRef struct {
	Kind  AssetRefKind
	Value string
}

func NewAPIServedRef(userID int, filename string) AssetRef {
	return AssetRef{
		Kind:  AssetAPIServed,
		Value: fmt.Sprintf("/api/v1/isl-videos/serve/%d/%s", userID, filename),
	}
}

func NewPreviewRef(tempID string) AssetRef {
	return AssetRef{Kind: AssetPreview, Value: tempID}
}

func (r AssetRef) String() string {
	if r.Kind == AssetPreview {
		return "/isl-video-generation/preview/" + r.Value
	}
	return r.Value
}

// FilePath resolves the reference back to a filesystem location given the
// staging and permanent roots. Returns false when the reference cannot map
// to a local file.
func (r AssetRef) FilePath(stagingDir, permanentDir string) (string, bool) {
	switch r.Kind {
	case AssetPreview:
		if r.Value == "" {
			return "", false
		}
		return filepath.Join(stagingDir, r.Value+".mp4"), true
	case AssetAbsolute:
		return r.Value, r.Value != ""
	case AssetRelative:
		if r.Value == "" {
			return "", false
		}
		return filepath.Join(permanentDir, r.Value), true
	case AssetAPIServed:
		// /api/v1/isl-videos/serve/{user}/{filename} maps to
		// {permanentDir}/user_{user}/{filename}.
		const prefix = "/api/v1/isl-videos/serve/"
		rest, ok := strings.CutPrefix(r.Value, prefix)
		if !ok {
			return "", false
		}
		userID, filename, ok := strings.Cut(rest, "/")
		if !ok || userID == "" || filename == "" {
			return "", false
		}
		return filepath.Join(permanentDir, "user_"+userID, filename), true
	default:
		return "", false
	}
}

// ParseAssetRef reconstructs a tagged reference from its stored string form.
// Used only when reading rows written before the tag column existed.
func ParseAssetRef(raw string) AssetRef {
	switch {
	case raw == "":
		return AssetRef{}
	case strings.HasPrefix(raw, "/api/v1/isl-videos/serve/"):
		return AssetRef{Kind: AssetAPIServed, Value: raw}
	case strings.HasPrefix(raw, "/isl-video-generation/preview/"):
		return AssetRef{Kind: AssetPreview, Value: strings.TrimPrefix(raw, "/isl-video-generation/preview/")}
	case filepath.IsAbs(raw):
		return AssetRef{Kind: AssetAbsolute, Value: raw}
	default:
		return AssetRef{Kind: AssetRelative, Value: raw}
	}
}
