package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"oil-sales-api/pkg/errx"
	logx "oil-sales-api/pkg/logger"
)

// FileStore はディレクトリに成果物を保存します。
// 保存は隣接する一時ディレクトリに書いてから入れ替えるため、
// 読み手が新旧の混ざった組を見ることはありません。
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: filepath.Clean(dir)}
}

func (s *FileStore) Save(ctx context.Context, b *Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blobs, err := Encode(b)
	if err != nil {
		return err
	}

	parent := filepath.Dir(s.Dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, filepath.Base(s.Dir)+".tmp-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeFileSync(filepath.Join(tmp, name), blobs[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	var old string
	if _, err := os.Stat(s.Dir); err == nil {
		old = fmt.Sprintf("%s.old-%s", s.Dir, uuid.NewString())
		if err := os.Rename(s.Dir, old); err != nil {
			return fmt.Errorf("move previous bundle aside: %w", err)
		}
	}
	if err := os.Rename(tmp, s.Dir); err != nil {
		if old != "" {
			if rerr := os.Rename(old, s.Dir); rerr != nil {
				logx.Error().Err(rerr).Str("dir", s.Dir).Msg("failed to restore previous bundle")
			}
		}
		return fmt.Errorf("publish bundle: %w", err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			logx.Warn().Err(err).Str("dir", old).Msg("failed to remove previous bundle")
		}
	}

	logx.Info().Str("bundle_id", b.Manifest.BundleID).Str("dir", s.Dir).Msg("bundle saved")
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blobs := make(map[string][]byte, len(BlobNames)+1)
	for _, name := range append([]string{ManifestFile}, BlobNames...) {
		data, err := os.ReadFile(filepath.Join(s.Dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errx.NewArtifactError(name, "not found in %s", s.Dir)
		}
		if err != nil {
			return nil, &errx.ArtifactError{Artifact: name, Err: err}
		}
		blobs[name] = data
	}
	return Decode(blobs)
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var _ Store = (*FileStore)(nil)
