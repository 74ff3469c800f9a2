// Package sourcestage extracts, copies, clones, and patches a build's
// sources into its srcdir. Every Source variant's Setup call except
// Patch's is rooted under a randomly-nonced workspace path so a later
// audit of the produced binaries can flag any absolute-path leak back to
// a build's srcdir; Patch writes to the fixed srcdir/patches/<name>.
package sourcestage

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/ui"
	"github.com/forgeline/sandboxctl/util"
)

// Source is a single staged input to a build: an archive, a bare file, a
// directory tree, a git checkout, or a patch payload.
type Source interface {
	// Setup materialises the source under workspace's srcdir, returning the
	// absolute path it landed at.
	Setup(task *ui.Task, workspace *Workspace) (string, error)
}

// Workspace is the srcdir root a build's sources are staged into.
type Workspace struct {
	SrcDir string
}

// NewWorkspace roots a Workspace at dir. It does not create dir; each
// Setup call creates the directories it writes into.
func NewWorkspace(dir string) *Workspace {
	return &Workspace{SrcDir: dir}
}

// targetDir returns a nonce-prefixed path under srcdir for name, e.g.
// srcdir/a1b2c3d4-myproject. The nonce lets an audit pass later distinguish
// a genuine absolute path from one that merely happens to contain "myproject".
func (w *Workspace) targetDir(name string) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	return filepath.Join(w.SrcDir, nonce+"-"+name), nil
}

// patchesDir is srcdir/patches, where Patch sources are materialised.
func (w *Workspace) patchesDir() string {
	return filepath.Join(w.SrcDir, "patches")
}

func randomNonce() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(buf), nil
}

// Archive is a tarball, zip, or other packed blob to extract. Target names
// the directory it extracts into (nonce-prefixed beneath srcdir); Hash, if
// set, is verified against Path's sha256 before extraction.
type Archive struct {
	Path   string
	Hash   string
	Target string
	Strip  int
}

var _ Source = Archive{}

// Setup extracts the archive, preferring the host's tar/unzip for the
// common cases (zip and tar, including xz/zstd-compressed tars) and
// falling back to the pure-Go extractors in archive.go for everything
// else (7z, deb, rpm) or when the host tool fails.
func (a Archive) Setup(task *ui.Task, workspace *Workspace) (string, error) {
	if a.Hash != "" {
		if err := verifyHash(a.Path, a.Hash); err != nil {
			return "", err
		}
	}
	dest, err := workspace.targetDir(a.Target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dest)
	}
	if err := extractViaHostTool(task, a.Path, dest, a.Strip); err == nil {
		return dest, nil
	}
	if err := extractArchive(task, a.Path, dest, a.Strip); err != nil {
		return "", errors.Wrapf(err, "extracting %s", a.Path)
	}
	return dest, nil
}

// File is a single file copied verbatim into srcdir.
type File struct {
	Path   string
	Hash   string
	Target string
}

var _ Source = File{}

func (f File) Setup(task *ui.Task, workspace *Workspace) (string, error) {
	if f.Hash != "" {
		if err := verifyHash(f.Path, f.Hash); err != nil {
			return "", err
		}
	}
	dest, err := workspace.targetDir(f.Target)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", errors.WithStack(err)
	}
	task.Tracef("copy %s -> %s", f.Path, dest)
	if err := copyFile(f.Path, dest); err != nil {
		return "", errors.Wrapf(err, "copying %s", f.Path)
	}
	return dest, nil
}

// Directory copies a local directory tree into srcdir, optionally
// dereferencing symlinks encountered along the way.
type Directory struct {
	Path           string
	FollowSymlinks bool
	Target         string
}

var _ Source = Directory{}

func (d Directory) Setup(task *ui.Task, workspace *Workspace) (string, error) {
	dest, err := workspace.targetDir(d.Target)
	if err != nil {
		return "", err
	}
	task.Tracef("copy tree %s -> %s", d.Path, dest)
	if err := copyDir(d.Path, dest, d.FollowSymlinks); err != nil {
		return "", errors.Wrapf(err, "copying %s", d.Path)
	}
	return dest, nil
}

// Git clones a repository and checks out the pinned commit. Target, if
// unset, is derived from Path with a trailing ".git" stripped.
type Git struct {
	Path   string
	Commit string
	Target string
}

var _ Source = Git{}

func (g Git) Setup(task *ui.Task, workspace *Workspace) (string, error) {
	dest, err := workspace.targetDir(gitTargetName(g.Path, g.Target))
	if err != nil {
		return "", err
	}
	url := g.Path
	if g.Commit != "" {
		url += "#" + g.Commit
	}
	if _, err := util.GitClone(task, &util.RealCommandRunner{}, url, dest); err != nil {
		return "", errors.Wrapf(err, "cloning %s", g.Path)
	}
	return dest, nil
}

// Patch is an inline patch payload materialised under srcdir/patches/<name>
// rather than extracted into srcdir itself; ToolchainEmitter consumers and
// build scripts apply it explicitly.
type Patch struct {
	Name    string
	Payload []byte
}

var _ Source = Patch{}

func (p Patch) Setup(task *ui.Task, workspace *Workspace) (string, error) {
	dir := workspace.patchesDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.WithStack(err)
	}
	dest := filepath.Join(dir, p.Name)
	task.Tracef("patch -> %s", dest)
	if err := os.WriteFile(dest, p.Payload, 0644); err != nil {
		return "", errors.Wrapf(err, "writing patch %s", p.Name)
	}
	return dest, nil
}

// gitTargetName derives the checkout directory name: target if given,
// otherwise path's base with a trailing ".git" stripped.
func gitTargetName(path, target string) string {
	if target != "" {
		return target
	}
	return strings.TrimSuffix(filepath.Base(path), ".git")
}

func verifyHash(path, want string) error {
	got, err := util.Sha256LocalFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Errorf("%s: sha256 mismatch: want %s, got %s", path, want, got)
	}
	return nil
}
