package sourcestage

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/otiai10/copy"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
)

// extractViaHostTool extracts src into dest using the host's tar or unzip,
// dispatched purely by file extension. It returns an error for anything
// that isn't a recognised tar/zip extension or that the host tool can't
// open, in which case the caller falls back to extractArchive.
func extractViaHostTool(task *ui.Task, src, dest string, strip int) error {
	lower := strings.ToLower(src)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return runHostTool(task, dest, "unzip", "-q", src, "-d", dest)
	case hasTarExtension(lower):
		args := []string{"-xf", src, "-C", dest}
		if strip > 0 {
			args = append(args, "--strip-components", itoa(strip))
		}
		return runHostTool(task, dest, "tar", args...)
	default:
		return errors.Errorf("%s: not a host-tool-extractable archive extension", src)
	}
}

func hasTarExtension(lower string) bool {
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".tar.zst"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func runHostTool(task *ui.Task, dir string, name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return errors.WithStack(err)
	}
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s: %s", name, out)
	}
	task.Tracef("%s", shellquote.Join(append([]string{name}, args...)...))
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// copyDir copies src into dest, honouring followSymlinks.
func copyDir(src, dest string, followSymlinks bool) error {
	opt := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			if followSymlinks {
				return copy.Deep
			}
			return copy.Shallow
		},
	}
	return errors.WithStack(copy.Copy(src, dest, opt))
}

// copyFile copies a single regular file, preserving its mode.
func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.WithStack(err)
	}
	r, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	w, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(w.Close())
}
