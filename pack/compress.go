package pack

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/forgeline/sandboxctl/errors"
)

// CompressDir compresses every regular file directly under dir in place,
// appending ext to its name and deleting the original. Symlinks and
// subdirectories are left untouched.
func CompressDir(dir, codec string, level int, ext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, e := range entries {
		if e.IsDir() || e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := compressFile(path, path+ext, codec, level); err != nil {
			return errors.Wrapf(err, "compressing %s", path)
		}
		if err := os.Remove(path); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func compressFile(src, dest, codec string, level int) error {
	in, err := os.Open(src) // nolint: gosec
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close() // nolint: gosec, errcheck

	out, err := os.Create(dest) // nolint: gosec
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close() // nolint: gosec, errcheck

	w, err := newCompressor(out, codec, level)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(w.Close())
}

func newCompressor(w io.Writer, codec string, level int) (io.WriteCloser, error) {
	switch codec {
	case "gzip":
		gw, err := gzip.NewWriterLevel(w, level)
		return gw, errors.WithStack(err)
	case "zstd":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		return zw, errors.WithStack(err)
	default:
		return nil, errors.Errorf("unsupported compression codec %q", codec)
	}
}
