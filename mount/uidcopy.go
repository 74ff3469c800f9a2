package mount

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/willdonnelly/passwd"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
)

// perUIDCopy returns a copy of the squashfs image at storePath private to
// the invoking UID, so a loop mount doesn't fight over ownership with other
// users sharing the same artifact store. The copy lives under the user's
// home directory (resolved from /etc/passwd, falling back to
// os/user's HomeDir) and is reused across builds by content path, not
// regenerated every time.
func (m *Mounter) perUIDCopy(ctx context.Context, log ui.Logger, storePath string) (string, error) {
	u, err := user.Current()
	if err != nil {
		return storePath, nil // best effort: fall back to mounting the shared copy directly
	}
	home, err := homeDirFromPasswd(u.Username)
	if err != nil || home == "" {
		home = u.HomeDir
	}
	if home == "" {
		return storePath, nil
	}

	cacheDir := filepath.Join(home, ".cache", "sandboxctl", "squashfs")
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return storePath, nil
	}
	dest := filepath.Join(cacheDir, filepath.Base(storePath))

	if same, err := sameContent(storePath, dest); err == nil && same {
		return dest, nil
	}

	if err := copyFile(storePath, dest); err != nil {
		log.Warnf("per-UID squashfs copy failed, mounting shared copy: %s", err)
		return storePath, nil
	}
	return dest, nil
}

func homeDirFromPasswd(username string) (string, error) {
	pw, err := passwd.Parse()
	if err != nil {
		return "", errors.WithStack(err)
	}
	entry, ok := pw[username]
	if !ok {
		return "", errors.Errorf("no /etc/passwd entry for %q", username)
	}
	return entry.Home, nil
}

func sameContent(a, b string) (bool, error) {
	as, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bs, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return as.Size() == bs.Size() && as.ModTime().Equal(bs.ModTime()), nil
}

func copyFile(src, dst string) error {
	r, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	tmp := dst + fmt.Sprintf(".tmp-%d", os.Getpid())
	w, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		os.Remove(tmp)
		return errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return errors.WithStack(err)
	}
	srcInfo, err := os.Stat(src)
	if err == nil {
		_ = os.Chtimes(tmp, srcInfo.ModTime(), srcInfo.ModTime())
	}
	return errors.WithStack(os.Rename(tmp, dst))
}
