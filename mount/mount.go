// Package mount materialises compiler shards into a per-build root: either
// a loop-mounted squashfs image or a direct bind to the artifact store for
// already-unpacked shards. It also guards the two privileged operations a
// build may need — the loop mount itself and, on MacOS shards, the EULA
// acceptance gate.
package mount

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/platform"
	"github.com/forgeline/sandboxctl/shard"
	"github.com/forgeline/sandboxctl/ui"
)

// Runner is the restricted contract a Mounter invokes to run privileged
// commands. The real implementation execs sudo/su; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner shells out via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, errors.Wrapf(err, "%v: %s", args, out)
	}
	return out, nil
}

// DriverKind names the sandbox executor a Mounter is preparing shards for.
// Only the user-namespace and Docker runners can consume a real loop mount;
// every other runner gets the unpacked-bind no-op path.
type DriverKind string

const (
	DriverUserNamespace DriverKind = "userns"
	DriverDocker        DriverKind = "docker"
	DriverOther         DriverKind = "other"
)

// Mounter materialises and tears down CompilerShard mounts for one build
// root.
type Mounter struct {
	BuildRoot   string
	Driver      DriverKind
	Runner      Runner
	EULADir     string // directory holding the persistent EULA sentinel file
	AutoAccept  bool   // honours the AUTOMATIC_APPLE environment flag
	Interactive bool

	probeLock *fileLock
}

// NewMounter constructs a Mounter for one build.
func NewMounter(buildRoot string, driver DriverKind, eulaDir string, autoAccept, interactive bool) *Mounter {
	return &Mounter{
		BuildRoot:   buildRoot,
		Driver:      driver,
		Runner:      execRunner{},
		EULADir:     eulaDir,
		AutoAccept:  autoAccept,
		Interactive: interactive,
		probeLock:   newFileLock(filepath.Join(os.TempDir(), "sandboxctl-mount-probe.lock"), 200*time.Millisecond),
	}
}

// Mount materialises s, returning the path it ended up at. Idempotent: a
// shard already mounted/bound at its computed path is a no-op.
func (m *Mounter) Mount(ctx context.Context, log ui.Logger, s shard.CompilerShard, storePath string) (string, error) {
	if s.Host.OS == platform.MacOS || (s.Target != nil && s.Target.OS == platform.MacOS) {
		if err := m.requireEULA(s); err != nil {
			return "", err
		}
	}

	if s.ArchiveKind != shard.Squashfs || !m.canLoopMount() {
		return storePath, nil
	}

	dest := MountPath(m.BuildRoot, s)
	if mounted, err := isMountPoint(dest); err != nil {
		return "", errors.WithStack(err)
	} else if mounted {
		return dest, nil
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", errors.Wrapf(err, "creating mount point %s", dest)
	}

	src, err := m.perUIDCopy(ctx, log, storePath)
	if err != nil {
		return "", err
	}

	if err := m.withPrivilegeEscalation(ctx, log, func(prefix []string) error {
		args := append(append([]string{}, prefix...), "mount", "-o", "loop,ro", src, dest)
		_, err := m.Runner.Run(ctx, args...)
		return err
	}); err != nil {
		return "", errors.Wrapf(errors.ErrMountFailed, "%s: %s", dest, err)
	}
	return dest, nil
}

// Unmount tears down a previously mounted shard. Failure is logged and
// swallowed unless failOnError is set.
func (m *Mounter) Unmount(ctx context.Context, log ui.Logger, s shard.CompilerShard, failOnError bool) error {
	if s.ArchiveKind != shard.Squashfs || !m.canLoopMount() {
		return nil
	}
	dest := MountPath(m.BuildRoot, s)
	mounted, err := isMountPoint(dest)
	if err != nil || !mounted {
		return nil
	}
	err = m.withPrivilegeEscalation(ctx, log, func(prefix []string) error {
		args := append(append([]string{}, prefix...), "umount", dest)
		_, err := m.Runner.Run(ctx, args...)
		return err
	})
	if err != nil {
		wrapped := errors.Wrapf(errors.ErrUnmountFailed, "%s: %s", dest, err)
		if failOnError {
			return wrapped
		}
		log.Warnf("%s", wrapped.Error())
		return nil
	}
	if err := m.removeMountsDirIfEmpty(); err != nil {
		log.Warnf("removing .mounts: %s", err)
	}
	return nil
}

func (m *Mounter) removeMountsDirIfEmpty() error {
	dir := filepath.Join(m.BuildRoot, ".mounts")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WithStack(err)
	}
	if len(entries) == 0 {
		return errors.WithStack(os.Remove(dir))
	}
	return nil
}

// canLoopMount reports whether this Mounter should attempt a real loop
// mount rather than a no-op bind: Linux host, userns/Docker driver.
func (m *Mounter) canLoopMount() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	return m.Driver == DriverUserNamespace || m.Driver == DriverDocker
}

// withPrivilegeEscalation serialises (via probeLock) and runs fn with a
// sudo/su prefix when the caller is not already root.
func (m *Mounter) withPrivilegeEscalation(ctx context.Context, log ui.Logger, fn func(prefix []string) error) error {
	if err := m.probeLock.Acquire(ctx, log); err != nil {
		return errors.WithStack(err)
	}
	defer m.probeLock.Release(log)

	if unix.Geteuid() == 0 {
		return fn(nil)
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return fn([]string{"sudo", "-n"})
	}
	return fn([]string{"su", "-c"})
}

func isMountPoint(path string) (bool, error) {
	pathStat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}
	parentStat, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false, errors.WithStack(err)
	}
	pathSys, ok1 := pathStat.Sys().(*unix.Stat_t)
	parentSys, ok2 := parentStat.Sys().(*unix.Stat_t)
	if !ok1 || !ok2 {
		return false, nil
	}
	return pathSys.Dev != parentSys.Dev, nil
}
