package mount

import (
	"os"
	"path/filepath"

	"github.com/forgeline/sandboxctl/errors"
	"github.com/forgeline/sandboxctl/shard"
)

// requireEULA enforces that a MacOS shard's EULA has been accepted, either
// via AutoAccept (set from the AUTOMATIC_APPLE configuration flag) or a
// persistent sentinel file recorded the first time a human accepts
// interactively. In non-interactive mode, a missing acceptance is fatal
// rather than prompting.
func (m *Mounter) requireEULA(s shard.CompilerShard) error {
	if m.AutoAccept {
		return m.recordEULAAcceptance()
	}
	accepted, err := m.eulaSentinelExists()
	if err != nil {
		return err
	}
	if accepted {
		return nil
	}
	if !m.Interactive {
		return errors.Wrapf(errors.ErrSDKNotAccepted, "%s: EULA not accepted and not running interactively", s.ArtifactName)
	}
	// Interactive acceptance is driven by the caller (outside this
	// package's concern — it owns the terminal prompt); once the caller
	// has the user's consent it calls AcceptEULA.
	return errors.Wrapf(errors.ErrSDKNotAccepted, "%s: EULA acceptance required", s.ArtifactName)
}

// AcceptEULA records that the invoking user has accepted the MacOS SDK
// EULA, persisting a sentinel file so future invocations don't re-prompt.
func (m *Mounter) AcceptEULA() error {
	return m.recordEULAAcceptance()
}

func (m *Mounter) recordEULAAcceptance() error {
	if m.EULADir == "" {
		return nil
	}
	if err := os.MkdirAll(m.EULADir, 0700); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(m.eulaSentinelPath(), []byte("accepted\n"), 0600))
}

func (m *Mounter) eulaSentinelExists() (bool, error) {
	if m.EULADir == "" {
		return false, nil
	}
	_, err := os.Stat(m.eulaSentinelPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (m *Mounter) eulaSentinelPath() string {
	return filepath.Join(m.EULADir, "apple-sdk-eula-accepted")
}
