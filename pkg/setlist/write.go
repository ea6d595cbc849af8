package setlist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/matzehuels/setlistgen/pkg/errors"
)

// DefaultBaseName is the file name stem used by [WriteFile].
const DefaultBaseName = "setlist"

// UniquePath returns dir/base.ext, or dir/base(N).ext with the smallest N
// that does not exist yet.
func UniquePath(dir, base, ext string) string {
	path := filepath.Join(dir, base+"."+ext)
	for n := 1; fileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s(%d).%s", base, n, ext))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFile exports s and writes it to a fresh file in dir, creating dir
// if needed. It returns the path written.
func WriteFile(ctx context.Context, dir string, s *Setlist, f Format) (string, error) {
	data, err := Export(ctx, s, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", dir)
	}

	path := UniquePath(dir, DefaultBaseName, f.Ext())
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return path, nil
}
