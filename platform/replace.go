package platform

import (
	"github.com/qdm12/reprint"
)

// deepCopy returns an independent copy of p via reprint, the same
// deep-copy-then-mutate technique the teacher uses for manifest merging.
func deepCopy(p Platform) Platform {
	return reprint.This(p).(Platform)
}

// AbiAgnostic returns p with its CompilerABI cleared. Shard identity is
// stored in this form: ABI decisions live at selection time, not in the
// shard's identity.
func (p Platform) AbiAgnostic() Platform {
	c := deepCopy(p)
	c.ABI = CompilerABI{}
	return c
}

// ReplaceLibgfortranVersion returns a copy of p with its libgfortran
// version set to version.
func (p Platform) ReplaceLibgfortranVersion(version int) Platform {
	c := deepCopy(p)
	c.ABI.LibgfortranVersion = version
	return c
}

// ReplaceCxxstringAbi returns a copy of p with its C++ string ABI set to
// abi.
func (p Platform) ReplaceCxxstringAbi(abi CxxStringABI) Platform {
	c := deepCopy(p)
	c.ABI.CxxStringABI = abi
	return c
}
