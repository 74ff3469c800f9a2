package sourcestage

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/blakesmith/ar"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zstd"
	"github.com/saracen/go7z"
	rpmutils "github.com/sassoftware/go-rpmutils"
	"github.com/xi2/xz"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
)

// extractArchive unpacks the archive at source into destDir, stripping the
// first strip leading path components of each entry.
//
// This is the fallback path for Archive sources that the host's tar/unzip
// cannot handle directly — see Archive.Setup. destDir must already exist
// and be empty.
func extractArchive(task *ui.Task, source, destDir string, strip int) error {
	f, r, mime, err := openArchive(source)
	if err != nil {
		return err
	}
	defer f.Close() // nolint: gosec

	info, err := f.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	task.Size(int(info.Size()))
	defer task.Done()
	r = io.NopCloser(io.TeeReader(r, task.ProgressWriter()))

	switch mime.String() {
	case "application/zip":
		return extractZip(task, f, info, destDir, strip)

	case "application/x-7z-compressed":
		return extract7Zip(f, info.Size(), destDir, strip)

	case "application/x-tar":
		return extractTar(task, r, destDir, strip)

	case "application/vnd.debian.binary-package":
		return extractDebianPackage(task, r, destDir, strip)

	case "application/x-rpm":
		return extractRpmPackage(r, destDir, strip)

	default:
		return errors.Errorf("don't know how to extract archive %s of type %s", source, mime)
	}
}

// Open a potentially compressed archive.
//
// It returns the MIME type of the underlying (decompressed) file content,
// and a reader positioned at the start of that content.
func openArchive(source string) (f *os.File, r io.Reader, mime *mimetype.MIME, err error) {
	mime, err = mimetype.DetectFile(source)
	if err != nil {
		return nil, nil, mime, errors.WithStack(err)
	}
	f, err = os.Open(source)
	if err != nil {
		return nil, nil, mime, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	r = f
	switch mime.String() {
	case "application/gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, mime, errors.WithStack(err)
		}
		r = zr

	case "application/x-bzip2":
		r = bzip2.NewReader(r)

	case "application/x-xz":
		xr, err := xz.NewReader(r, 0)
		if err != nil {
			return nil, nil, mime, errors.WithStack(err)
		}
		r = xr

	case "application/zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, nil, errors.WithStack(err)
		}
		r = zr

	default:
		// Assume it's already the content we want.
		return f, r, mime, nil
	}

	// Detect the underlying, now-decompressed, archive type.
	buf := make([]byte, 4096)
	n, err := r.Read(buf)
	if err != nil && (!errors.Is(err, io.EOF) || n == 0) {
		return nil, nil, mime, errors.WithStack(err)
	}
	buf = buf[:n]
	mime = mimetype.Detect(buf)
	return f, io.MultiReader(bytes.NewReader(buf), r), mime, nil
}

func extractZip(task *ui.Task, f *os.File, info os.FileInfo, dest string, strip int) error {
	zr, err := zip.NewReader(bufra.NewBufReaderAt(f, int(info.Size())), info.Size())
	if err != nil {
		return errors.WithStack(err)
	}
	progress := task.SubProgress("unpack", len(zr.File))
	defer progress.Done()
	for _, zf := range zr.File {
		task.Tracef("  %s", zf.Name)
		progress.Add(1)
		destFile, err := makeDestPath(dest, zf.Name, strip)
		if err != nil {
			return err
		}
		if destFile == "" {
			continue
		}
		if err := extractZipFile(zf, destFile); err != nil {
			return errors.Wrap(err, destFile)
		}
	}
	return nil
}

func extractZipFile(zf *zip.File, destFile string) error {
	zfr, err := zf.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer zfr.Close()
	if zf.Mode().IsDir() {
		return errors.WithStack(os.MkdirAll(destFile, 0700))
	}
	if zf.Mode()&os.ModeSymlink != 0 {
		symlink, err := io.ReadAll(zfr)
		if err != nil {
			return errors.WithStack(err)
		}
		dir := filepath.Dir(destFile)
		symlinkPath, err := filepath.Rel(dir, filepath.Join(dir, string(symlink)))
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(os.Symlink(symlinkPath, destFile))
	}
	if err := os.MkdirAll(filepath.Dir(destFile), 0700); err != nil {
		return errors.WithStack(err)
	}
	w, err := os.OpenFile(destFile, os.O_CREATE|os.O_WRONLY, zf.Mode()&^0077)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = io.Copy(w, zfr) // nolint: gosec
	if err != nil {
		_ = w.Close()
		return errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return errors.WithStack(err)
	}
	_ = os.Chtimes(destFile, zf.Modified, zf.Modified) // Best effort.
	return nil
}

func extractTar(task *ui.Task, r io.Reader, dest string, strip int) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return errors.WithStack(err)
		}
		mode := hdr.FileInfo().Mode() &^ 0077
		destFile, err := makeDestPath(dest, hdr.Name, strip)
		if err != nil {
			return err
		}
		if destFile == "" {
			continue
		}
		task.Tracef("  %s -> %s", hdr.Name, destFile)
		if err := os.MkdirAll(filepath.Dir(destFile), 0700); err != nil {
			return errors.WithStack(err)
		}
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(destFile, 0700); err != nil {
				return errors.Wrapf(err, "%s: failed to create directory", destFile)
			}

		case mode&os.ModeSymlink != 0:
			if err := syscall.Symlink(hdr.Linkname, destFile); err != nil {
				return errors.Wrapf(err, "%s: failed to create symlink to %s", destFile, hdr.Linkname)
			}

		case hdr.Typeflag&(tar.TypeLink|tar.TypeGNULongLink) != 0 && hdr.Linkname != "":
			// Convert hard links into symlinks so we don't have to track inodes.
			src := filepath.Join(dest, hdr.Linkname) // nolint: gosec
			rp, err := filepath.Rel(filepath.Dir(destFile), src)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := os.Symlink(rp, destFile); err != nil {
				return errors.WithStack(err)
			}

		default:
			w, err := os.OpenFile(destFile, os.O_CREATE|os.O_WRONLY, mode)
			if err != nil {
				return errors.WithStack(err)
			}
			_, err = io.Copy(w, tr) // nolint: gosec
			_ = w.Close()
			if err != nil {
				return errors.WithStack(err)
			}
			_ = os.Chtimes(destFile, hdr.AccessTime, hdr.ModTime) // Best effort.
		}
	}
	return nil
}

func extractDebianPackage(task *ui.Task, r io.Reader, dest string, strip int) error {
	reader := ar.NewReader(r)
	for {
		header, err := reader.Next()
		if err != nil {
			return errors.WithStack(err)
		}
		if strings.HasPrefix(header.Name, "data.tar") {
			lr := io.LimitReader(reader, header.Size)
			ur, err := decompressByExtension(header.Name, lr)
			if err != nil {
				return err
			}
			return extractTar(task, ur, dest, strip)
		}
	}
}

func decompressByExtension(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".xz"):
		return xz.NewReader(r, 0)
	case strings.HasSuffix(name, ".zst"):
		return zstd.NewReader(r)
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(r), nil
	default:
		return r, nil
	}
}

func extract7Zip(r io.ReaderAt, size int64, dest string, strip int) error {
	sz, err := go7z.NewReader(r, size)
	if err != nil {
		return errors.WithStack(err)
	}
	for {
		hdr, err := sz.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		if hdr.IsEmptyStream && !hdr.IsEmptyFile {
			continue // Directory entry.
		}
		destFile, err := makeDestPath(dest, hdr.Name, strip)
		if err != nil {
			return err
		}
		if destFile == "" {
			continue
		}
		if err := ensureDirExists(destFile); err != nil {
			return errors.WithStack(err)
		}
		f, err := os.OpenFile(destFile, os.O_CREATE|os.O_RDWR, 0755) // nolint: gosec
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := io.Copy(f, sz); err != nil {
			_ = f.Close()
			return errors.WithStack(err)
		}
		if err := f.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func extractRpmPackage(r io.Reader, dest string, strip int) error {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return errors.WithStack(err)
	}
	pr, err := rpm.PayloadReader()
	if err != nil {
		return errors.WithStack(err)
	}
	for {
		header, err := pr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		if header.Filesize() <= 0 {
			continue
		}
		bts := make([]byte, header.Filesize())
		if _, err := pr.Read(bts); err != nil {
			return errors.WithStack(err)
		}
		filename, err := makeDestPath(dest, header.Filename(), strip)
		if err != nil {
			return err
		}
		if filename == "" {
			continue
		}
		if err := ensureDirExists(filename); err != nil {
			return errors.WithStack(err)
		}
		if err := os.WriteFile(filename, bts, os.FileMode(header.Mode())); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func ensureDirExists(file string) error {
	return os.MkdirAll(filepath.Dir(file), os.ModePerm)
}

// makeDestPath strips the leading strip path components from path and joins
// the remainder onto dest, rejecting any entry that would escape dest.
func makeDestPath(dest, path string, strip int) (string, error) {
	if err := sanitizeExtractPath(path, dest); err != nil {
		return "", err
	}
	parts := strings.Split(path, "/")
	if len(parts) <= strip {
		return "", nil
	}
	destFile := strings.Join(parts[strip:], "/")
	return filepath.Join(dest, destFile), nil
}

// https://snyk.io/research/zip-slip-vulnerability
func sanitizeExtractPath(filePath string, destination string) error {
	destPath := filepath.Join(destination, filePath)
	if !strings.HasPrefix(destPath, filepath.Clean(destination)) {
		return errors.Errorf("%s: illegal file path (%s not under %s)", filePath, destPath, destination)
	}
	return nil
}
