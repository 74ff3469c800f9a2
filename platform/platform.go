// Package platform implements the target-triplet algebra that every other
// component keys off: normalisation, matching, and ABI/microarchitecture
// expansion. A Platform is an immutable value — derived forms are always
// returned as new values, never mutated in place.
package platform

import (
	"sort"
	"strings"

	"github.com/forgeline/sandboxctl/errors"
)

// OS is one of the supported operating system families.
type OS int

// Supported operating systems.
const (
	Any OS = iota
	Linux
	MacOS
	FreeBSD
	Windows
)

func (o OS) String() string {
	switch o {
	case Any:
		return "any"
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case FreeBSD:
		return "freebsd"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// Arch is a supported CPU architecture.
type Arch int

// Supported architectures.
const (
	UnknownArch Arch = iota
	I686
	X86_64
	ARMv7L
	AArch64
	PowerPC64LE
)

func (a Arch) String() string {
	switch a {
	case I686:
		return "i686"
	case X86_64:
		return "x86_64"
	case ARMv7L:
		return "armv7l"
	case AArch64:
		return "aarch64"
	case PowerPC64LE:
		return "powerpc64le"
	default:
		return "unknown"
	}
}

// aaArch is the spelling Arch takes inside an aatriplet: armv7l normalises
// to "arm" there, every other architecture keeps its usual spelling.
func (a Arch) aaArch() string {
	if a == ARMv7L {
		return "arm"
	}
	return a.String()
}

// Libc distinguishes the C library a Linux platform is built against.
type Libc int

// Supported libc families. LibcNone is valid only for non-Linux platforms.
const (
	LibcNone Libc = iota
	Glibc
	Musl
)

func (l Libc) String() string {
	switch l {
	case Glibc:
		return "glibc"
	case Musl:
		return "musl"
	default:
		return ""
	}
}

// CallABI distinguishes the calling convention on 32-bit ARM.
type CallABI int

// Supported calling ABIs. CallABINone is valid everywhere except
// armv7l-linux, where Eabihf is required.
const (
	CallABINone CallABI = iota
	Eabihf
)

func (c CallABI) String() string {
	if c == Eabihf {
		return "eabihf"
	}
	return ""
}

// CxxStringABI distinguishes the libstdc++ std::string ABI a GCC build
// produces.
type CxxStringABI int

// Supported C++ string ABIs.
const (
	CxxStringABINone CxxStringABI = iota
	Cxx03
	Cxx11
)

func (c CxxStringABI) String() string {
	switch c {
	case Cxx03:
		return "cxx03"
	case Cxx11:
		return "cxx11"
	default:
		return ""
	}
}

// CompilerABI records the ABI facets a GCC/LLVM build produces, or that a
// target platform requires.
//
// A zero value for LibgfortranVersion/LibstdcxxVersion means "unspecified",
// not "version zero".
type CompilerABI struct {
	LibgfortranVersion int
	LibstdcxxVersion   int
	CxxStringABI       CxxStringABI
}

func (a CompilerABI) isZero() bool {
	return a.LibgfortranVersion == 0 && a.LibstdcxxVersion == 0 && a.CxxStringABI == CxxStringABINone
}

// Platform is the central entity of the triplet algebra: an operating
// system, architecture, optional libc/call ABI, compiler ABI, and a
// free-form sorted extension map (march, cuda, cuda_capability,
// julia_version, ...).
//
// Platform is immutable. Every method that "changes" a Platform — the
// Expand* and Replace* family, AbiAgnostic — returns a new value.
type Platform struct {
	OS         OS
	Arch       Arch
	Libc       Libc
	CallABI    CallABI
	ABI        CompilerABI
	Extensions map[string]string
}

// AnyPlatform is the wildcard platform. It triplets to the literal string
// "any" and behaves identically to x86_64-linux-musl in every
// build-environment context.
var AnyPlatform = Platform{OS: Any}

// DefaultHost is the concrete platform AnyPlatform stands in for.
var DefaultHost = Platform{OS: Linux, Arch: X86_64, Libc: Musl}

// Resolve returns p, unless p is AnyPlatform, in which case it returns
// DefaultHost.
func (p Platform) Resolve() Platform {
	if p.OS == Any {
		return DefaultHost
	}
	return p
}

// clone returns a deep copy of p, safe to mutate.
func (p Platform) clone() Platform {
	c := p
	if p.Extensions != nil {
		c.Extensions = make(map[string]string, len(p.Extensions))
		for k, v := range p.Extensions {
			c.Extensions[k] = v
		}
	}
	return c
}

// sortedExtensionKeys returns the Extensions keys of p in deterministic
// sorted order.
func (p Platform) sortedExtensionKeys() []string {
	keys := make([]string, 0, len(p.Extensions))
	for k := range p.Extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extension looks up a single extension key, returning ok=false if unset.
func (p Platform) extension(key string) (string, bool) {
	v, ok := p.Extensions[key]
	return v, ok
}

// Extension looks up a single extension key, returning ok=false if unset.
func (p Platform) Extension(key string) (string, bool) {
	return p.extension(key)
}

// march returns the microarchitecture extension, if any.
func (p Platform) march() (string, bool) {
	return p.extension("march")
}

// withExtension returns a copy of p with key=value set in Extensions.
// An empty value deletes the key.
func (p Platform) withExtension(key, value string) Platform {
	c := p.clone()
	if c.Extensions == nil {
		c.Extensions = map[string]string{}
	}
	if value == "" {
		delete(c.Extensions, key)
	} else {
		c.Extensions[key] = value
	}
	return c
}

// Extend sets key=value on p's extension map, returning the new Platform.
//
// Extend fails with errors.ErrInvalidKey if value contains '+', if key is
// "march" and value is not in the whitelist for p's architecture, or if
// key is already set to a conflicting value. Setting the same key to the
// same value is idempotent and never an error.
func (p Platform) Extend(key, value string) (Platform, error) {
	if strings.Contains(value, "+") {
		return Platform{}, errors.Wrapf(errors.ErrInvalidKey, "extension value %q may not contain '+'", value)
	}
	if existing, ok := p.extension(key); ok && existing != value {
		return Platform{}, errors.Wrapf(errors.ErrInvalidKey, "extension %q already set to %q, cannot set to %q", key, existing, value)
	}
	if key == "march" {
		if !validMicroarchitecture(p.Arch, value) {
			return Platform{}, errors.Wrapf(errors.ErrInvalidKey, "%q is not a valid microarchitecture for %s", value, p.Arch)
		}
	}
	return p.withExtension(key, value), nil
}
