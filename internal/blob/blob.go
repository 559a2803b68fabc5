package blob

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("only images are allowed")

// Store persists uploaded image assets. Store returns a dereferenceable URL.
// Delete is best-effort: an already-missing asset is success, and any other
// failure is logged by the implementation, never returned, so record-level
// operations can't be blocked by asset cleanup.
type Store interface {
	Store(ctx context.Context, data []byte, originalName string) (string, error)
	Delete(ctx context.Context, assetRef string)
}

// newAssetName builds a collision-resistant object name, keeping the upload's
// extension (falling back to the sniffed one) so the file stays servable with
// a sensible content type.
func newAssetName(data []byte, originalName string) (string, error) {
	mtype := mimetype.Detect(data)

	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrUnsupportedType
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = mtype.Extension()
	}

	return uuid.NewString() + ext, nil
}
