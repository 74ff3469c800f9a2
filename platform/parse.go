package platform

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
	"github.com/alecthomas/participle/lexer/stateful"

	"github.com/forgeline/sandboxctl/errors"
)

var (
	tripletLexer = lexer.Must(stateful.NewSimple([]stateful.Rule{
		{"Ident", `[a-zA-Z][a-zA-Z0-9_.]*`, nil},
		{"Number", `[0-9][0-9a-zA-Z_.]*`, nil},
		{"Plus", `\+`, nil},
		{"Dash", `-`, nil},
	}))
	tripletParser = participle.MustBuild(&tripletAST{}, participle.Lexer(tripletLexer))
)

// segment is one "-"-delimited chunk after arch-os: either a bare word
// (libc+eabihf, a libgfortran/cxx ABI tag) or a key+value extension pair.
type segment struct {
	Key   string  `@(Ident | Number)`
	Value *string `("+" @(Ident | Number))?`
}

type tripletAST struct {
	Arch     string     `@Ident "-"`
	OS       string     `@Ident`
	Segments []*segment `("-" @@)*`
}

// Parse parses a wire-format triplet into a Platform.
//
// Parse is the inverse of Platform.Triplet for every triplet that
// Triplet can produce; both are deterministic.
func Parse(s string) (Platform, error) {
	if s == "any" {
		return AnyPlatform, nil
	}
	ast := &tripletAST{}
	if err := tripletParser.ParseString(s, ast); err != nil {
		return Platform{}, errors.Wrapf(errors.ErrInvalidTriplet, "%s: %s", s, err)
	}

	var p Platform
	var err error
	p.Arch, err = parseArch(ast.Arch)
	if err != nil {
		return Platform{}, errors.Wrapf(errors.ErrInvalidTriplet, "%s: %s", s, err)
	}
	p.OS, err = parseOS(ast.OS)
	if err != nil {
		return Platform{}, errors.Wrapf(errors.ErrInvalidTriplet, "%s: %s", s, err)
	}

	segments := ast.Segments
	if p.OS == Linux && len(segments) > 0 && segments[0].Value == nil {
		libc, callABI, consumed := parseLibcWord(segments[0].Key)
		if consumed {
			p.Libc = libc
			p.CallABI = callABI
			segments = segments[1:]
		}
	}

	for _, seg := range segments {
		if seg.Value != nil {
			p.Extensions = setExtension(p.Extensions, seg.Key, *seg.Value)
			continue
		}
		switch {
		case strings.HasPrefix(seg.Key, "libgfortran"):
			n, err := strconv.Atoi(strings.TrimPrefix(seg.Key, "libgfortran"))
			if err != nil {
				return Platform{}, errors.Wrapf(errors.ErrInvalidTriplet, "%s: bad libgfortran tag %q", s, seg.Key)
			}
			p.ABI.LibgfortranVersion = n

		case seg.Key == "cxx03":
			p.ABI.CxxStringABI = Cxx03

		case seg.Key == "cxx11":
			p.ABI.CxxStringABI = Cxx11

		default:
			return Platform{}, errors.Wrapf(errors.ErrInvalidTriplet, "%s: unrecognised triplet segment %q", s, seg.Key)
		}
	}
	return p, nil
}

func setExtension(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = map[string]string{}
	}
	m[k] = v
	return m
}

// parseLibcWord splits a combined libc+call-ABI word such as "musleabihf"
// into its parts. consumed is false if word is not a recognised libc word
// at all (so the caller should treat it as an ABI/extension segment
// instead).
func parseLibcWord(word string) (libc Libc, callABI CallABI, consumed bool) {
	base := word
	if strings.HasSuffix(base, "eabihf") {
		callABI = Eabihf
		base = strings.TrimSuffix(base, "eabihf")
	}
	switch base {
	case "glibc":
		return Glibc, callABI, true
	case "musl":
		return Musl, callABI, true
	case "":
		if callABI == Eabihf {
			return LibcNone, callABI, true
		}
		return LibcNone, CallABINone, false
	default:
		return LibcNone, CallABINone, false
	}
}

func parseArch(s string) (Arch, error) {
	switch s {
	case "i686":
		return I686, nil
	case "x86_64":
		return X86_64, nil
	case "armv7l":
		return ARMv7L, nil
	case "aarch64":
		return AArch64, nil
	case "powerpc64le":
		return PowerPC64LE, nil
	default:
		return UnknownArch, errors.Errorf("unknown architecture %q", s)
	}
}

func parseOS(s string) (OS, error) {
	switch s {
	case "linux":
		return Linux, nil
	case "macos":
		return MacOS, nil
	case "freebsd":
		return FreeBSD, nil
	case "windows":
		return Windows, nil
	case "any":
		return Any, nil
	default:
		return Any, errors.Errorf("unknown OS %q", s)
	}
}
