package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/voyagr/travelstory/internal/observability"
)

// DiskStore writes uploads to a local directory served under baseURL/uploads.
type DiskStore struct {
	dir     string
	baseURL string
	log     *slog.Logger
	prom    *observability.Prom
}

func NewDiskStore(dir, baseURL string, log *slog.Logger, prom *observability.Prom) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{
		dir:     dir,
		baseURL: baseURL,
		log:     log,
		prom:    prom,
	}, nil
}

func (s *DiskStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	name, err := newAssetName(data, originalName)
	if err != nil {
		return "", err
	}

	err = s.prom.ObserveBlob("store", func() error {
		return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return s.baseURL + "/uploads/" + name, nil
}

// Delete unlinks the file behind assetRef. Only the base name is honored, so
// a crafted ref can't reach outside the upload dir. Missing files count as
// already deleted; anything else is logged and swallowed.
func (s *DiskStore) Delete(ctx context.Context, assetRef string) {
	name := path.Base(assetRef)

	if name == "." || name == "/" || name == "" {
		return
	}

	_ = s.prom.ObserveBlob("delete", func() error {
		err := os.Remove(filepath.Join(s.dir, name))

		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.WarnContext(ctx, "failed to delete image", "asset", name, "err", err)
			return err
		}

		return nil
	})
}
